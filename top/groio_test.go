package top

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/mdgmx/chem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waterTop = `; SPC water
[ defaults ]
; nbfunc comb-rule gen-pairs fudgeLJ fudgeQQ
1 2 yes 0.5 0.8333

[ atomtypes ]
;name at.num mass charge ptype sigma epsilon
OW 8 15.9994 0.0 A 0.316557 0.650194
HW 1 1.008 0.0 A 0.0 0.0

[ moleculetype ]
SOL 2

[ atoms ]
1 OW 1 SOL OW 1 -0.82 15.9994
2 HW 1 SOL HW1 1 0.41 1.008
3 HW 1 SOL HW2 1 0.41 1.008 ; comment

#ifdef FLEXIBLE
[ bonds ]
1 2 1 0.1 345000
1 3 1 0.1 345000
[ angles ]
2 1 3 1 109.47 383
#else
[ settles ]
1 1 0.1 0.16330
#endif

[ exclusions ]
1 2 3
2 1 3
3 1 2

[ system ]
Water

[ molecules ]
SOL 2
`

func waters(n int) chem.Atomer {
	ats := make([]*chem.Atom, 0, 3*n)
	for i := 0; i < n; i++ {
		ats = append(ats, &chem.Atom{Name: "OW"}, &chem.Atom{Name: "HW1"}, &chem.Atom{Name: "HW2"})
	}
	return chem.NewTopology(ats)
}

func TestFill(Te *testing.T) {
	F := NewFF("")
	require.NoError(Te, F.Fill(bufio.NewReader(strings.NewReader(waterTop)), false))
	assert.Equal(Te, "SOL", F.Name)
	assert.Equal(Te, 2, F.NrExcl)
	require.NotNil(Te, F.Defaults)
	assert.Equal(Te, 2, F.Defaults.CombRule)
	assert.True(Te, F.SigmaEpsilon)
	require.Len(Te, F.ATypes, 2)
	assert.Equal(Te, 8, F.ATypes[0].AtNum)
	assert.Equal(Te, "A", F.ATypes[0].Ptype)
	c6, _ := sigmaepsilonToc6c12(0.316557, 0.650194)
	assert.InEpsilon(Te, c6, F.ATypes[0].C6, 1e-9)
	require.Equal(Te, 3, F.Len())
	assert.Equal(Te, "HW2", F.Atoms[2].Name)
	assert.InDelta(Te, 0.41, F.Atoms[2].Charge, 1e-9)
	assert.Empty(Te, F.Bonds)
	require.Len(Te, F.Raw, 1)
	assert.Equal(Te, "settles", F.Raw[0].Header)
	assert.Equal(Te, [][]int{{1, 2, 3}, {2, 1, 3}, {3, 1, 2}}, F.Exclusions)
}

func TestFillDefines(Te *testing.T) {
	F := NewFF("")
	require.NoError(Te, F.Fill(bufio.NewReader(strings.NewReader(waterTop)), false, "FLEXIBLE"))
	require.Len(Te, F.Bonds, 2)
	require.Len(Te, F.Angles, 1)
	assert.Equal(Te, []int{2, 1, 3}, F.Angles[0].IDs)
	assert.Equal(Te, 1, F.Angles[0].FuncType)
	assert.Equal(Te, []float64{109.47, 383}, F.Angles[0].Params)
	assert.Empty(Te, F.Raw)
}

func TestFillErrors(Te *testing.T) {
	F := NewFF("")
	err := F.Fill(bufio.NewReader(strings.NewReader("[ atoms ]\n1 OW 1 SOL\n")), false)
	assert.Error(Te, err)
	two := "[ moleculetype ]\nA 3\n[ atoms ]\n1 C 1 A C1 1 0.0\n[ moleculetype ]\nB 3\n[ atoms ]\n1 C 1 B C1 1 0.0\n"
	F = NewFF("")
	assert.Error(Te, F.Fill(bufio.NewReader(strings.NewReader(two)), false))
}

func TestWriteTopRoundTrip(Te *testing.T) {
	F := NewFF("")
	require.NoError(Te, F.Fill(bufio.NewReader(strings.NewReader(waterTop)), false, "FLEXIBLE"))
	var buf bytes.Buffer
	require.NoError(Te, F.WriteTop(&buf, waters(4), "Water box"))
	out := buf.String()
	assert.Contains(Te, out, "[ molecules ]\nSOL 4\n")
	assert.Contains(Te, out, "[ system ]\nWater box\n")
	F2 := NewFF("")
	require.NoError(Te, F2.Fill(bufio.NewReader(strings.NewReader(out)), false))
	assert.Equal(Te, F.Name, F2.Name)
	assert.Equal(Te, F.Atoms, F2.Atoms)
	assert.Equal(Te, F.Exclusions, F2.Exclusions)
	require.Len(Te, F2.Bonds, 2)
	assert.Equal(Te, F.Bonds[0].IDs, F2.Bonds[0].IDs)
	assert.InDeltaSlice(Te, F.Bonds[0].Params, F2.Bonds[0].Params, 1e-6)
	require.Len(Te, F2.ATypes, 2)
	assert.InEpsilon(Te, F.ATypes[0].C6, F2.ATypes[0].C6, 1e-4)
	assert.InEpsilon(Te, F.ATypes[0].C12, F2.ATypes[0].C12, 1e-4)
}

func TestWriteTopCount(Te *testing.T) {
	F := NewFF("")
	require.NoError(Te, F.Fill(bufio.NewReader(strings.NewReader(waterTop)), false))
	var buf bytes.Buffer
	require.NoError(Te, F.WriteTop(&buf, waters(1), ""))
	assert.Contains(Te, buf.String(), "[ system ]\nSOL\n")
	buf.Reset()
	bad := chem.NewTopology(append(waters(1).(*chem.Topology).Atoms, &chem.Atom{Name: "X"}))
	assert.Error(Te, F.WriteTop(&buf, bad, ""))
	assert.Error(Te, NewFF("empty").WriteTop(&buf, waters(1), ""))
}

func TestIncludes(Te *testing.T) {
	dir := Te.TempDir()
	itp := "[ moleculetype ]\nMET 3\n[ atoms ]\n1 CT 1 MET C1 1 0.0 12.011\n"
	require.NoError(Te, os.WriteFile(filepath.Join(dir, "met.itp"), []byte(itp), 0o644))
	main := "#include \"oplsaa.ff/forcefield.itp\"\n#include \"met.itp\"\n[ system ]\nmethane\n"
	require.NoError(Te, os.WriteFile(filepath.Join(dir, "met.top"), []byte(main), 0o644))

	F, err := FileRead(filepath.Join(dir, "met.top"), false)
	require.NoError(Te, err)
	assert.Equal(Te, []string{"oplsaa.ff/forcefield.itp", "met.itp"}, F.Includes)
	assert.Equal(Te, 0, F.Len())

	_, err = FileRead(filepath.Join(dir, "met.top"), true)
	assert.Error(Te, err) //oplsaa.ff is not there

	require.NoError(Te, os.WriteFile(filepath.Join(dir, "met.top"), []byte(main[strings.Index(main, "\n")+1:]), 0o644))
	F, err = FileRead(filepath.Join(dir, "met.top"), true)
	require.NoError(Te, err)
	assert.Equal(Te, "MET", F.Name)
	require.Equal(Te, 1, F.Len())
	assert.InDelta(Te, 12.011, F.Atoms[0].Mass, 1e-9)
}

func TestWriteTopIncludes(Te *testing.T) {
	F := NewFF("MET")
	F.Includes = []string{"oplsaa.ff/forcefield.itp"}
	F.Atoms = []*Atom{{ID: 1, Type: "opls_138", MolID: 1, MolName: "MET", Name: "C1", Charge: -0.24}}
	var buf bytes.Buffer
	require.NoError(Te, F.WriteTop(&buf, chem.NewTopology([]*chem.Atom{{Name: "C1"}}), ""))
	out := buf.String()
	assert.Contains(Te, out, "#include \"oplsaa.ff/forcefield.itp\"\n")
	assert.NotContains(Te, out, "[ defaults ]")
	assert.Contains(Te, out, "[ molecules ]\nMET 1\n")
}

package tileset

import "sort"

func tile(name string, weight float64, up, right, down, left string) TileDefinition {
	return TileDefinition{Name: name, Connectors: []string{up, right, down, left}, Weight: weight}
}

var builtins = map[string]func() *Set{
	"road": func() *Set {
		return &Set{
			Name:        "road",
			Description: "Roads (B) on open ground (A)",
			Tiles: []TileDefinition{
				tile("tiles/Road_0.png", 1, "A", "A", "B", "A"),
				tile("tiles/Road_1.png", 1, "B", "A", "B", "A"),
				tile("tiles/Road_2.png", 1, "A", "A", "B", "B"),
				tile("tiles/Road_3.png", 1, "B", "B", "B", "B"),
				tile("tiles/Road_4.png", 1, "A", "A", "A", "A"),
				tile("tiles/Road_5.png", 1, "A", "B", "B", "B"),
			},
		}
	},
	"circuit": func() *Set {
		return &Set{
			Name:        "circuit",
			Description: "Circuit board traces with directional chip edges",
			Tiles: []TileDefinition{
				tile("tiles/circuit/0.png", 12, "A", "A", "A", "A"),
				tile("tiles/circuit/1.png", 1, "B", "B", "B", "B"),
				tile("tiles/circuit/2.png", 1, "B", "C", "B", "B"),
				tile("tiles/circuit/3.png", 1, "B", "D", "B", "D"),
				tile("tiles/circuit/4.png", 11, "Ea", "C", "Ef", "A"),
				tile("tiles/circuit/5.png", 4, "Ea", "B", "B", "Ef"),
				tile("tiles/circuit/6.png", 1, "B", "C", "B", "C"),
				tile("tiles/circuit/7.png", 1, "D", "C", "D", "C"),
				tile("tiles/circuit/8.png", 1, "D", "B", "C", "B"),
				tile("tiles/circuit/9.png", 6, "C", "C", "B", "C"),
				tile("tiles/circuit/10.png", 1, "C", "C", "C", "C"),
				tile("tiles/circuit/11.png", 1, "C", "C", "B", "B"),
				tile("tiles/circuit/12.png", 1, "B", "C", "B", "C"),
			},
		}
	},
	"scifi": func() *Set {
		return &Set{
			Name:        "scifi",
			Description: "Machinery panels joined by light lines",
			Tiles: []TileDefinition{
				tile("tiles/sci-fi/AAAE_MachineWindow.PNG", 1, "A", "A", "A", "E"),
				tile("tiles/sci-fi/AADfDa_MachineCorner.PNG", 1, "A", "A", "Df", "Da"),
				tile("tiles/sci-fi/ABAA_BrokenMachine.PNG", 1, "A", "B", "A", "A"),
				tile("tiles/sci-fi/ABAC_CapStop.PNG", 1, "A", "B", "A", "C"),
				tile("tiles/sci-fi/ACAC_LineContinue.PNG", 1, "A", "C", "A", "C"),
				tile("tiles/sci-fi/CCAA_SideLine.PNG", 1, "C", "C", "A", "A"),
				tile("tiles/sci-fi/CCAC_LineThreeConnectors.PNG", 1, "C", "C", "A", "C"),
				tile("tiles/sci-fi/CCCC_LineAllCross.PNG", 1, "C", "C", "C", "C"),
				tile("tiles/sci-fi/CCCC_LineAllSideways.PNG", 1, "C", "C", "C", "C"),
				tile("tiles/sci-fi/CCDfDa_MachineCornerWithLine.PNG", 1, "C", "C", "Df", "Da"),
				tile("tiles/sci-fi/DaBDfE_CapMachine.PNG", 1, "Da", "B", "Df", "E"),
				tile("tiles/sci-fi/EEEE_MachineBlank.PNG", 1, "E", "E", "E", "E"),
			},
		}
	},
}

// Builtin returns a fresh copy of a built-in set.
func Builtin(name string) (*Set, bool) {
	build, ok := builtins[name]
	if !ok {
		return nil, false
	}
	set := build()
	set.Source = name
	return set, true
}

// Names lists the built-in sets alphabetically.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

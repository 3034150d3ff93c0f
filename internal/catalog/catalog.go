package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"AgroMonitor/internal/model"
)

// Group is an ordered list of instruments sharing a category.
type Group struct {
	Category    model.Category     `yaml:"category"`
	Instruments []model.Instrument `yaml:"instruments"`
}

// Catalog is the read-only registry of instruments the scanner walks.
type Catalog struct {
	groups   []Group
	bySymbol map[string]model.Instrument
}

var defaultGroups = []Group{
	{
		Category: model.CategoryGrowthEquity,
		Instruments: []model.Instrument{
			{Symbol: "SLCE3.SA", Name: "SLC Agrícola (Grãos)"},
			{Symbol: "AGRO3.SA", Name: "BrasilAgro (Terras)"},
			{Symbol: "SMTO3.SA", Name: "São Martinho (Açúcar)"},
			{Symbol: "RAIZ4.SA", Name: "Raízen (Bioenergia)"},
			{Symbol: "JALL3.SA", Name: "Jalles Machado (Açúcar)"},
			{Symbol: "SOJA3.SA", Name: "Boa Safra (Sementes)"},
			{Symbol: "TTEN3.SA", Name: "3Tentos (Varejo)"},
			{Symbol: "AGXY3.SA", Name: "AgroGalaxy (Insumos)"},
			{Symbol: "BEEF3.SA", Name: "Minerva (Boi)"},
			{Symbol: "MRFG3.SA", Name: "Marfrig (Boi)"},
			{Symbol: "JBSS3.SA", Name: "JBS (Global)"},
			{Symbol: "BRFS3.SA", Name: "BRF (Aves/Suínos)"},
			{Symbol: "CAML3.SA", Name: "Camil (Alimentos)"},
			{Symbol: "MDIA3.SA", Name: "M. Dias Branco (Massas)"},
			{Symbol: "JOPA3.SA", Name: "Josapar (Arroz)"},
			{Symbol: "SUZB3.SA", Name: "Suzano (Celulose)"},
			{Symbol: "KLBN11.SA", Name: "Klabin (Papel)"},
			{Symbol: "KEPL3.SA", Name: "Kepler Weber (Silos)"},
		},
	},
	{
		Category: model.CategoryIncomeFund,
		Instruments: []model.Instrument{
			{Symbol: "SNAG11.SA", Name: "Suno Agro"},
			{Symbol: "KNCA11.SA", Name: "Kinea Agro"},
			{Symbol: "VGIA11.SA", Name: "Valora CRA"},
			{Symbol: "BBGO11.SA", Name: "BB Crédito"},
			{Symbol: "FGAA11.SA", Name: "FG Agro"},
			{Symbol: "RZAG11.SA", Name: "Riza Agro"},
			{Symbol: "XPCA11.SA", Name: "XP Crédito"},
			{Symbol: "AGRX11.SA", Name: "Exes Araguaia"},
		},
	},
	{
		Category: model.CategoryGlobalDepositary,
		Instruments: []model.Instrument{
			{Symbol: "DE", Name: "Deere & Co (Maquinário)"},
			{Symbol: "AGCO", Name: "AGCO Corp (Maquinário)"},
			{Symbol: "ADM", Name: "Archer Daniels (Trading)"},
			{Symbol: "BG", Name: "Bunge (Trading)"},
			{Symbol: "MOS", Name: "Mosaic (Fertilizantes)"},
			{Symbol: "NTR", Name: "Nutrien (Fertilizantes)"},
			{Symbol: "CTVA", Name: "Corteva (Sementes)"},
			{Symbol: "CF", Name: "CF Industries (Nitrogênio)"},
			{Symbol: "BVEG39.SA", Name: "iShares Global Agric."},
			{Symbol: "RZTR11.SA", Name: "Investo Teckma (Terras)"},
		},
	},
	{
		Category: model.CategoryCommodityFuture,
		Instruments: []model.Instrument{
			{Symbol: "ZC=F", Name: "Milho (Chicago)"},
			{Symbol: "ZS=F", Name: "Soja (Chicago)"},
			{Symbol: "KC=F", Name: "Café (Nova York)"},
			{Symbol: "LE=F", Name: "Boi Gordo (Futuro)"},
			{Symbol: "SB=F", Name: "Açúcar (Bruto)"},
		},
	},
}

// Default returns the built-in agribusiness registry.
func Default() *Catalog {
	c, err := New(defaultGroups)
	if err != nil {
		panic(err)
	}
	return c
}

// New builds a catalog from groups, stamping each instrument with its
// group's category. Symbols must be unique across groups.
func New(groups []Group) (*Catalog, error) {
	c := &Catalog{bySymbol: make(map[string]model.Instrument)}
	for _, g := range groups {
		if !g.Category.Valid() {
			return nil, fmt.Errorf("unknown category %q", g.Category)
		}
		out := Group{Category: g.Category, Instruments: make([]model.Instrument, 0, len(g.Instruments))}
		for _, inst := range g.Instruments {
			inst.Symbol = strings.ToUpper(strings.TrimSpace(inst.Symbol))
			if inst.Symbol == "" {
				return nil, fmt.Errorf("%s: instrument without symbol", g.Category)
			}
			if _, dup := c.bySymbol[inst.Symbol]; dup {
				return nil, fmt.Errorf("duplicate symbol %s", inst.Symbol)
			}
			if inst.Name == "" {
				inst.Name = inst.Symbol
			}
			inst.Category = g.Category
			c.bySymbol[inst.Symbol] = inst
			out.Instruments = append(out.Instruments, inst)
		}
		c.groups = append(c.groups, out)
	}
	return c, nil
}

// Load reads a catalogue override file:
//
//	groups:
//	  - category: income-fund
//	    instruments:
//	      - {symbol: KNCA11.SA, name: Kinea Agro}
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc struct {
		Groups []Group `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Groups) == 0 {
		return nil, fmt.Errorf("parse catalog: %s has no groups", path)
	}
	return New(doc.Groups)
}

// Groups returns the groups in declared order.
func (c *Catalog) Groups() []Group {
	return c.groups
}

// Len returns the number of instruments.
func (c *Catalog) Len() int {
	return len(c.bySymbol)
}

// Lookup resolves a symbol the way users type it: "slce3" finds SLCE3.SA
// and "ZC" finds ZC=F. Unknown symbols become an ad-hoc growth-equity
// instrument and ok is false.
func (c *Catalog) Lookup(symbol string) (model.Instrument, bool) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, candidate := range []string{s, s + ".SA", s + "=F"} {
		if inst, ok := c.bySymbol[candidate]; ok {
			return inst, true
		}
	}
	return model.Instrument{Symbol: s, Name: s, Category: model.CategoryGrowthEquity}, false
}

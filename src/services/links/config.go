package links

import "time"

type Config struct {
	// Limites da busca de ciclo. Estourar qualquer um deles rejeita a aresta.
	MaxCycleCheckVisits int
	CycleCheckTimeout   time.Duration

	// Limites da árvore de filhos. Estourar marca a resposta como truncada.
	MaxTreeDepth int
	MaxTreeNodes int

	// Tamanho máximo de cada lote enviado ao catálogo.
	ResolveBatchSize int
	// Quantos lotes podem estar em voo ao mesmo tempo.
	ResolveConcurrency int
}

func DefaultConfig() Config {
	return Config{
		MaxCycleCheckVisits: 10000,
		CycleCheckTimeout:   5 * time.Second,
		MaxTreeDepth:        50,
		MaxTreeNodes:        5000,
		ResolveBatchSize:    100,
		ResolveConcurrency:  4,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()

	if c.MaxCycleCheckVisits <= 0 {
		c.MaxCycleCheckVisits = defaults.MaxCycleCheckVisits
	}
	if c.CycleCheckTimeout <= 0 {
		c.CycleCheckTimeout = defaults.CycleCheckTimeout
	}
	if c.MaxTreeDepth <= 0 {
		c.MaxTreeDepth = defaults.MaxTreeDepth
	}
	if c.MaxTreeNodes <= 0 {
		c.MaxTreeNodes = defaults.MaxTreeNodes
	}
	if c.ResolveBatchSize <= 0 {
		c.ResolveBatchSize = defaults.ResolveBatchSize
	}
	if c.ResolveConcurrency <= 0 {
		c.ResolveConcurrency = defaults.ResolveConcurrency
	}

	return c
}

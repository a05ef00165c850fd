package army

import (
	"bytes"
	_ "embed"
	"fmt"
)

//go:embed default_army.yaml
var defaultArmy []byte

// DefaultCatalog returns the built-in army. Each call returns a fresh catalog.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultArmy))
	if err != nil {
		panic(fmt.Sprintf("army: built-in army definition: %v", err))
	}
	return c
}

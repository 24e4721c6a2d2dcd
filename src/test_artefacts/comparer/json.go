package comparer

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"
)

// JSONRawMessage compara payloads pelo conteúdo decodificado, sem depender da ordem das chaves
func JSONRawMessage() cmp.Option {
	return cmp.Comparer(func(x, y json.RawMessage) bool {
		if len(x) == 0 || len(y) == 0 {
			return len(x) == len(y)
		}

		var decodedX, decodedY any
		if json.Unmarshal(x, &decodedX) != nil || json.Unmarshal(y, &decodedY) != nil {
			return false
		}

		return cmp.Equal(decodedX, decodedY)
	})
}

package index

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// NewVectorIndex creates the vector index for the configured provider.
func NewVectorIndex(config *common.Config, storage interfaces.VectorStorage, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.VectorIndex, error) {
	switch config.Index.Provider {
	case "pinecone":
		return NewPineconeIndex(&config.Index, kvStorage, logger)
	case "local", "":
		return NewLocalIndex(storage, logger), nil
	default:
		return nil, models.NewConfigurationError("index.provider", fmt.Sprintf("unsupported provider '%s' (use 'local' or 'pinecone')", config.Index.Provider))
	}
}

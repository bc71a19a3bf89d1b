package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/eslsoft/untranslatable/internal/entity"
)

// encodeDataset renders the document as two-space indented JSON.
func encodeDataset(dataset *entity.Dataset) ([]byte, error) {
	if dataset == nil {
		dataset = entity.NewDataset()
	}
	out, err := json.MarshalIndent(dataset.Clone().Normalize(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	return out, nil
}

// decodeDataset parses document content. Blank content means no data.
func decodeDataset(content []byte) (*entity.Dataset, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}
	var dataset entity.Dataset
	if err := json.Unmarshal(content, &dataset); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return dataset.Normalize(), nil
}

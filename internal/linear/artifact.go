package linear

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mikey/sms-spam-explainer/internal/explain"
)

// Normalization schemes supported for TF-IDF rows
const (
	NormL2   = "l2"
	NormNone = "none"
)

// DefaultThreshold is used when the artifact does not carry its own decision threshold
const DefaultThreshold = 0.5

// Artifact is the exported form of a TF-IDF + logistic regression pipeline
type Artifact struct {
	ModelID     string         `json:"model_id"`
	Version     string         `json:"version"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Coef        []float64      `json:"coef"`
	Intercept   float64        `json:"intercept"`
	SublinearTF bool           `json:"sublinear_tf"`
	Norm        string         `json:"norm"`
	Lowercase   *bool          `json:"lowercase,omitempty"`
	Threshold   float64        `json:"threshold,omitempty"`
}

// Load decodes an artifact from r and builds a model from it
func Load(r io.Reader) (*Model, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: failed to decode model artifact: %v", explain.ErrIntegration, err)
	}
	return NewModel(a)
}

// LoadFile reads the artifact at path. When checksum is not empty the file's
// sha256 must match it.
func LoadFile(path string, checksum string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	if checksum != "" {
		sum := sha256.Sum256(data)
		got := hex.EncodeToString(sum[:])
		if got != checksum {
			return nil, fmt.Errorf("%w: model artifact checksum mismatch: got %s want %s",
				explain.ErrIntegration, got, checksum)
		}
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: failed to decode model artifact: %v", explain.ErrIntegration, err)
	}
	return NewModel(a)
}

func validateArtifact(a Artifact) error {
	if a.ModelID == "" {
		return fmt.Errorf("%w: model_id must not be empty", explain.ErrIntegration)
	}
	if len(a.Vocabulary) == 0 {
		return fmt.Errorf("%w: vocabulary must not be empty", explain.ErrIntegration)
	}
	if len(a.Coef) == 0 {
		return fmt.Errorf("%w: coef must not be empty", explain.ErrIntegration)
	}
	if len(a.IDF) != len(a.Coef) {
		return fmt.Errorf("%w: idf has %d entries, coef has %d",
			explain.ErrIntegration, len(a.IDF), len(a.Coef))
	}
	switch a.Norm {
	case "", NormL2, NormNone:
	default:
		return fmt.Errorf("%w: unsupported norm %q", explain.ErrIntegration, a.Norm)
	}
	if a.Threshold < 0 || a.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in [0,1], got %v", explain.ErrIntegration, a.Threshold)
	}
	return nil
}

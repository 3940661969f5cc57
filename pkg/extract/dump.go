package extract

import (
	"encoding/json"
	"fmt"

	"github.com/bastiangx/pdfserve/internal/utils"
)

// Suffixes of the processing output files written next to the source.
const (
	RawSuffix      = ".rawdata.json"
	ModifiedSuffix = ".modified.json"
	LinesSuffix    = ".lines.json"
)

// ProcessingOutput is the intermediate state of one extraction run.
type ProcessingOutput struct {
	Raw        string
	Normalized string
	Lines      []string
}

type textPayload struct {
	Text any `json:"text"`
}

// DumpProcessingOutput writes each stage of out as a JSON file next to
// source, for inspecting what the normalizer did to a document.
func DumpProcessingOutput(source string, out ProcessingOutput) error {
	if source == "" {
		return ErrEmptyPath
	}
	lines := out.Lines
	if lines == nil {
		lines = []string{}
	}

	files := []struct {
		suffix string
		value  any
	}{
		{RawSuffix, out.Raw},
		{ModifiedSuffix, out.Normalized},
		{LinesSuffix, lines},
	}

	for _, f := range files {
		data, err := json.Marshal(textPayload{Text: f.value})
		if err != nil {
			return fmt.Errorf("encoding %s: %w", f.suffix, err)
		}
		if err := utils.WriteFileAtomic(utils.SidecarPath(source, f.suffix), data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", f.suffix, err)
		}
	}
	return nil
}

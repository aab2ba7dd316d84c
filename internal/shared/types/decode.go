package types

import (
	"encoding/json"
	"fmt"
)

// NewPayload returns an empty payload for a subject, or nil when the
// subject carries none.
func NewPayload(subject Subject) Payload {
	switch subject {
	case SubjectFile:
		return &FileOp{}
	case SubjectFolder:
		return &FolderOp{}
	case SubjectArchive:
		return &ArchiveOp{}
	case SubjectVersion:
		return &VersionOp{}
	case SubjectSync:
		return &SyncOp{}
	case SubjectSearch:
		return &SearchOp{}
	case SubjectFormat:
		return &FormatOp{}
	}
	return nil
}

// UnmarshalJSON decodes the payload into the type selected by subject_type.
func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	aux := struct {
		*plain
		Payload json.RawMessage `json:"payload,omitempty"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Payload = nil
	if len(aux.Payload) == 0 || string(aux.Payload) == "null" {
		return nil
	}

	p := NewPayload(r.Subject)
	if p == nil {
		return fmt.Errorf("subject %q carries no payload", r.Subject)
	}
	if err := json.Unmarshal(aux.Payload, p); err != nil {
		return fmt.Errorf("decode %s payload: %w", r.Subject, err)
	}
	r.Payload = p
	return nil
}

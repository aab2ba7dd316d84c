package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailAlwaysCarriesKind(t *testing.T) {
	res := Fail("read_file", SubjectFile, "", "boom")
	assert.False(t, res.OK)
	assert.Equal(t, ErrorIO, res.ErrorKind)
	assert.Equal(t, "boom", res.Error)
}

func TestEnvelopeJSONShape(t *testing.T) {
	res := Succeed("version_save", SubjectVersion, &VersionOp{
		Path:        "notes.txt",
		Version:     2,
		VersionPath: "notes_v2_20240101_120000.txt",
		Available:   2,
	}).WithMessage("saved")

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, true, decoded["ok"])
	assert.Equal(t, "version_save", decoded["action"])
	assert.Equal(t, "version", decoded["subject_type"])
	assert.Equal(t, "saved", decoded["message"])
	assert.NotContains(t, decoded, "error")
	assert.NotContains(t, decoded, "debug_info")

	payload := decoded["payload"].(map[string]interface{})
	assert.Equal(t, float64(2), payload["version"])
	assert.Equal(t, "notes_v2_20240101_120000.txt", payload["version_path"])
}

func TestPayloadFamilies(t *testing.T) {
	tests := []struct {
		payload Payload
		want    Subject
	}{
		{&FileOp{}, SubjectFile},
		{&FolderOp{}, SubjectFolder},
		{&ArchiveOp{}, SubjectArchive},
		{&VersionOp{}, SubjectVersion},
		{&SyncOp{}, SubjectSync},
		{&SearchOp{}, SubjectSearch},
		{&FormatOp{}, SubjectFormat},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.payload.Family())
	}
}

func TestResultRoundTripKeepsPayloadType(t *testing.T) {
	res := Fail("version_restore", SubjectVersion, ErrorVersionRange, "version 5 out of range").
		WithPayload(&VersionOp{Path: "notes.txt", Requested: 5, Available: 2})
	res.Items = []*Result{Succeed("read", SubjectFile, &FileOp{Path: "a.txt", Size: 3})}

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded Result
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.False(t, decoded.OK)
	assert.Equal(t, ErrorVersionRange, decoded.ErrorKind)
	op, ok := decoded.Payload.(*VersionOp)
	require.True(t, ok)
	assert.Equal(t, 5, op.Requested)
	assert.Equal(t, 2, op.Available)

	require.Len(t, decoded.Items, 1)
	item, ok := decoded.Items[0].Payload.(*FileOp)
	require.True(t, ok)
	assert.Equal(t, "a.txt", item.Path)
}

func TestResultUnmarshalRejectsPayloadForService(t *testing.T) {
	var decoded Result
	err := json.Unmarshal([]byte(`{"ok":false,"subject_type":"service","payload":{"x":1}}`), &decoded)
	assert.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"ok":false,"subject_type":"service","error_kind":"unknown_tool"}`), &decoded))
	assert.Nil(t, decoded.Payload)
	assert.Equal(t, ErrorUnknownTool, decoded.ErrorKind)
}

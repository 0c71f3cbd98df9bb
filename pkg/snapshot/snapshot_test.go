package snapshot

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/scribe/pkg/resource"
)

const helloHash = "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"

func TestEncodeJSONGolden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))

	t.Run("tags sorted and fields ordered", func(t *testing.T) {
		r := resource.New([]string{"notes", "go", "notes"}, "hello world")
		data, err := Encode(FromResource(r), FormatJSON)
		require.NoError(t, err)
		g.Assert(t, "snapshot_json", data)
	})

	t.Run("html is not escaped", func(t *testing.T) {
		r := resource.New([]string{"html"}, `<b>bold</b> & "quoted"`)
		data, err := Encode(FromResource(r), FormatJSON)
		require.NoError(t, err)
		g.Assert(t, "snapshot_json_unescaped", data)
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := resource.New([]string{"b", "a"}, "Some content: with punctuation!\nand a second line")

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(FromResource(r), format)
			require.NoError(t, err)

			s, err := Decode(data, format)
			require.NoError(t, err)

			got, err := s.Resource()
			require.NoError(t, err)
			assert.Equal(t, r.Hash(), got.Hash())
			assert.Equal(t, r.Content(), got.Content())
			assert.Equal(t, []string{"a", "b"}, got.Tags())
		})
	}
}

func TestEncodeNilTags(t *testing.T) {
	data, err := Encode(Snapshot{Content: "hello world", Hash: helloHash}, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tags": []`)
}

func TestDecodeCompactJSON(t *testing.T) {
	data := []byte(`{"tags":["rust","notes"],"content":"hello world","hash":"` + helloHash + `"}`)

	s, err := Decode(data, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"rust", "notes"}, s.Tags)
	assert.Equal(t, "hello world", s.Content)
	assert.Equal(t, helloHash, s.Hash)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"truncated json", FormatJSON, `{"tags":`},
		{"missing hash", FormatJSON, `{"tags":["a"],"content":"hello world"}`},
		{"missing content", FormatJSON, `{"tags":["a"],"hash":"` + helloHash + `"}`},
		{"tags not an array", FormatJSON, `{"tags":"a","content":"hello world","hash":"` + helloHash + `"}`},
		{"unknown field", FormatJSON, `{"tags":[],"content":"hello world","hash":"` + helloHash + `","extra":1}`},
		{"bad hash shape", FormatJSON, `{"tags":[],"content":"hello world","hash":"XYZ"}`},
		{"not an object", FormatJSON, `["hello"]`},
		{"broken yaml", FormatYAML, "tags: [a\ncontent: x"},
		{"yaml missing hash", FormatYAML, "tags:\n  - a\ncontent: hello world\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestSnapshotResourceHashMismatch(t *testing.T) {
	s := Snapshot{Tags: []string{"a"}, Content: "hello there", Hash: helloHash}

	_, err := s.Resource()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHashMismatch)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"toml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		want   Format
		wantOK bool
	}{
		{"a/b/" + helloHash + ".json", FormatJSON, true},
		{helloHash + ".yaml", FormatYAML, true},
		{helloHash + ".YML", FormatYAML, true},
		{helloHash + ".txt", "", false},
		{"notjson", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := FormatFromPath(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, ".json", FormatJSON.Ext())
	assert.Equal(t, ".yaml", FormatYAML.Ext())
}

package library

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"earshot/search"

	"github.com/stretchr/testify/require"
)

const testSampleRate = 44100

// wavBytes builds a 16-bit mono PCM file in memory.
func wavBytes(t *testing.T, samples int) []byte {
	t.Helper()

	var data bytes.Buffer
	for i := 0; i < samples; i++ {
		binary.Write(&data, binary.LittleEndian, int16(i%128))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(testSampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(testSampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	return buf.Bytes()
}

func TestLoadFromURL(t *testing.T) {
	wav := wavBytes(t, testSampleRate/10) // 100ms
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(wav)
	}))
	defer server.Close()

	lib := New()
	asset, err := lib.Load(context.Background(), "ding", server.URL+"/ding.wav")
	require.NoError(t, err)
	require.Equal(t, "ding", asset.Name)
	require.Equal(t, testSampleRate/10, asset.Buffer.Len())
	require.InDelta(t, 100*time.Millisecond, asset.Duration, float64(time.Millisecond))

	got, ok := lib.Get("ding")
	require.True(t, ok)
	require.Same(t, asset, got, "Get must return the loaded asset itself")
}

func TestLoadFromLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ding.wav")
	require.NoError(t, os.WriteFile(path, wavBytes(t, 500), 0o644))

	lib := New()
	asset, err := lib.Load(context.Background(), "ding", path)
	require.NoError(t, err)
	require.Equal(t, 500, asset.Buffer.Len())
}

func TestLoadOverwritesSameName(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.wav")
	second := filepath.Join(dir, "second.wav")
	require.NoError(t, os.WriteFile(first, wavBytes(t, 100), 0o644))
	require.NoError(t, os.WriteFile(second, wavBytes(t, 200), 0o644))

	lib := New()
	a1, err := lib.Load(context.Background(), "ding", first)
	require.NoError(t, err)
	a2, err := lib.Load(context.Background(), "ding", second)
	require.NoError(t, err)

	got, ok := lib.Get("ding")
	require.True(t, ok)
	require.Same(t, a2, got)
	require.NotSame(t, a1, got)
	require.Equal(t, 200, got.Buffer.Len())
}

func TestGetUnknownName(t *testing.T) {
	lib := New()
	asset, ok := lib.Get("nothing")
	require.False(t, ok)
	require.Nil(t, asset)
}

func TestLoadFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	lib := New()
	_, err := lib.Load(context.Background(), "ding", server.URL+"/gone.wav")

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, "ding", loadErr.Name)

	_, ok := lib.Get("ding")
	require.False(t, ok, "a failed load must not register an asset")
}

func TestLoadDecodeFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.wav")
	require.NoError(t, os.WriteFile(path, []byte("this is not audio"), 0o644))

	lib := New()
	_, err := lib.Load(context.Background(), "noise", path)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoadSearchWithoutProvider(t *testing.T) {
	lib := New()
	_, err := lib.LoadSearch(context.Background(), "rain", "heavy rain")

	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
}

func TestLoadSearchResolvesAndLoads(t *testing.T) {
	wav := wavBytes(t, 300)
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/search/text/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"count": 1,
			"results": []map[string]any{{
				"name":     "Rain on tent",
				"username": "fieldrecordist",
				"license":  "https://creativecommons.org/licenses/by/4.0/",
				"url":      server.URL + "/sounds/1/",
				"duration": 4.2,
				"previews": map[string]string{"preview-hq-mp3": server.URL + "/previews/rain.wav"},
			}},
		})
	})
	mux.HandleFunc("/previews/rain.wav", func(w http.ResponseWriter, r *http.Request) {
		w.Write(wav)
	})

	client := search.NewClient("token", search.WithBaseURL(server.URL))
	lib := New(WithSearch(client))

	asset, err := lib.LoadSearch(context.Background(), "rain", "heavy rain")
	require.NoError(t, err)
	require.Equal(t, 300, asset.Buffer.Len())

	got, ok := lib.Get("rain")
	require.True(t, ok)
	require.Same(t, asset, got)
}

func TestLoadSearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"count": 0, "results": []any{}})
	}))
	defer server.Close()

	client := search.NewClient("token", search.WithBaseURL(server.URL))
	lib := New(WithSearch(client))

	_, err := lib.LoadSearch(context.Background(), "rain", "heavy rain")

	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	require.ErrorIs(t, err, search.ErrNoResults)
}

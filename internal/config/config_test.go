package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []ServerSpec
		wantErr bool
	}{
		{
			name:  "empty string",
			input: "",
			want:  []ServerSpec{},
		},
		{
			name:  "single server",
			input: "1=2",
			want:  []ServerSpec{{ID: 1, CacheCapacity: 2}},
		},
		{
			name:  "multiple servers",
			input: "1=2,2=4,77=10",
			want: []ServerSpec{
				{ID: 1, CacheCapacity: 2},
				{ID: 2, CacheCapacity: 4},
				{ID: 77, CacheCapacity: 10},
			},
		},
		{
			name:  "with spaces",
			input: " 1 = 2 , 2 = 3 ,",
			want: []ServerSpec{
				{ID: 1, CacheCapacity: 2},
				{ID: 2, CacheCapacity: 3},
			},
		},
		{
			name:    "invalid format - no equals",
			input:   "1:2",
			wantErr: true,
		},
		{
			name:    "invalid format - non numeric id",
			input:   "a=2",
			wantErr: true,
		},
		{
			name:    "invalid format - empty capacity",
			input:   "1=",
			wantErr: true,
		},
		{
			name:    "invalid format - negative capacity",
			input:   "1=-4",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServers(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseServers() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(`
[[servers]]
id = 1
cache_capacity = 2
`)
	require.NoError(t, err)
	assert.False(t, cfg.VirtualNodes)
	assert.Equal(t, "xxhash", cfg.Hash)
	assert.Equal(t, 1000, cfg.QueueCapacity)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []ServerSpec{{ID: 1, CacheCapacity: 2}}, cfg.Servers)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse(`
virtual_nodes = true
hash = "fnv"
queue_capacity = 10
reject_overflow = true
log_level = "debug"

[[servers]]
id = 3
cache_capacity = 5

[[servers]]
id = 4
cache_capacity = 6
`)
	require.NoError(t, err)
	assert.True(t, cfg.VirtualNodes)
	assert.Equal(t, "fnv", cfg.Hash)
	assert.Equal(t, 10, cfg.QueueCapacity)
	assert.True(t, cfg.RejectOverflow)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Len(t, cfg.Servers, 2)
}

func TestParse_ServerList(t *testing.T) {
	cfg, err := Parse(`
server_list = "1=2, 2=4"

[[servers]]
id = 3
cache_capacity = 1
`)
	require.NoError(t, err)
	assert.Equal(t, []ServerSpec{
		{ID: 3, CacheCapacity: 1},
		{ID: 1, CacheCapacity: 2},
		{ID: 2, CacheCapacity: 4},
	}, cfg.Servers)
	assert.Empty(t, cfg.ServerList)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":    `cache_size = 3`,
		"bad toml":       `virtual_nodes = `,
		"unknown hash":   `hash = "md5"`,
		"negative queue": `queue_capacity = -1`,
		"id too large":   "[[servers]]\nid = 100000\ncache_capacity = 1",
		"zero capacity":  "[[servers]]\nid = 1\ncache_capacity = 0",
		"duplicate id":   "[[servers]]\nid = 1\ncache_capacity = 1\n[[servers]]\nid = 1\ncache_capacity = 2",
		"bad list":       `server_list = "1:2"`,
		"list duplicate": "server_list = \"1=2\"\n[[servers]]\nid = 1\ncache_capacity = 1",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docring.toml")
	require.NoError(t, os.WriteFile(path, []byte("virtual_nodes = true\n[[servers]]\nid = 8\ncache_capacity = 3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.VirtualNodes)
	assert.Equal(t, uint32(8), cfg.Servers[0].ID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

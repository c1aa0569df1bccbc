package hostconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{in: "3.1", want: Version{3, 1}},
		{in: "2.7.0", want: Version{2, 7}},
		{in: " 3.0 ", want: Version{3, 0}},
		{in: "3", wantErr: true},
		{in: "x.1", wantErr: true},
		{in: "3.-1", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	assert.True(t, Version{2, 7}.Less(Version{3, 0}))
	assert.True(t, Version{3, 0}.Less(Version{3, 1}))
	assert.False(t, Version{3, 1}.Less(Version{3, 1}))
	assert.True(t, Version{3, 1}.AtLeast(Version{3, 1}))
	assert.True(t, Version{4, 0}.AtLeast(Version{3, 9}))
	assert.Equal(t, 0, Version{3, 0}.Compare(Version{3, 0}))
	assert.Equal(t, "3.1", Version{3, 1}.String())
}

func TestVersion_Features(t *testing.T) {
	tests := []struct {
		v    Version
		want Features
	}{
		{Version{2, 6}, Features{Compaction: false, FrozenShareable: false, BindingNew: true}},
		{Version{2, 7}, Features{Compaction: true, FrozenShareable: false, BindingNew: true}},
		{Version{3, 0}, Features{Compaction: true, FrozenShareable: true, BindingNew: true}},
		{Version{3, 1}, Features{Compaction: true, FrozenShareable: true, BindingNew: true}},
		{Version{3, 2}, Features{Compaction: true, FrozenShareable: true, BindingNew: false}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.Features(), "version %s", tt.v)
	}
}

func TestCfgs(t *testing.T) {
	got := Cfgs(Version{3, 0})
	assert.Equal(t, []string{
		"gte_2_7", "gt_2_7",
		"lte_3_0", "eq_3_0", "gte_3_0",
		"lt_3_1", "lte_3_1",
	}, got)

	old := Cfgs(Version{2, 6})
	assert.Contains(t, old, "lt_2_7")
	assert.NotContains(t, old, "gte_2_7")
}

func TestCompiled(t *testing.T) {
	v := Compiled()
	assert.False(t, v.IsZero())
	assert.True(t, HasCfg("gte_2_7"))
}

package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{in: "#9146ff", want: "#9146FF"},
		{in: " #000000 ", want: "#000000"},
		{in: "9146ff", wantErr: true},
		{in: "#fff", wantErr: true},
		{in: "#zzzzzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFontStyle(t *testing.T) {
	s, err := ParseFontStyle("Italic")
	require.NoError(t, err)
	assert.Equal(t, FontStyleItalic, s)

	s, err = ParseFontStyle("")
	require.NoError(t, err)
	assert.Equal(t, FontStyleNormal, s)

	_, err = ParseFontStyle("slanted")
	assert.Error(t, err)
}

func TestParseColorScope(t *testing.T) {
	s, err := ParseColorScope("site")
	require.NoError(t, err)
	assert.Equal(t, ScopeSite, s)
	assert.Equal(t, "site", s.String())

	s, err = ParseColorScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeConnection, s)

	_, err = ParseColorScope("global")
	assert.Error(t, err)
}

func TestMetadata_Apply_raises_changed_fields_only(t *testing.T) {
	m := NewMetadata(Style{Background: "#000000", FontSize: 12})

	var props []string
	m.Subscribe(func(p string) { props = append(props, p) })

	s := m.Style()
	s.FontSize = 16
	s.NameWrapping = true
	m.Apply(s)

	assert.Equal(t, []string{PropFontSize, PropNameWrapping}, props)
}

func TestOptions_Values_is_a_copy(t *testing.T) {
	o := NewOptions(OptionsValues{SiteColors: map[string]ColorPair{"kick": {Background: "#53FC18"}}})

	v := o.Values()
	v.SiteColors["kick"] = ColorPair{Background: "#000000"}

	assert.Equal(t, Color("#53FC18"), o.Values().SiteColors["kick"].Background)
}

func TestOptions_Update_raises_only_on_change(t *testing.T) {
	o := NewOptions(OptionsValues{Scope: ScopeSite, SiteColors: map[string]ColorPair{"kick": {Background: "#53FC18"}}})

	raised := 0
	o.Subscribe(func(string) { raised++ })

	o.Update(o.Values())
	assert.Zero(t, raised)

	v := o.Values()
	v.SiteColors["kick"] = ColorPair{Background: "#000000"}
	o.Update(v)
	assert.Equal(t, 1, raised)

	v.SiteColorOverride = true
	o.Update(v)
	assert.Equal(t, 2, raised)
}

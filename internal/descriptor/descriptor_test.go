package descriptor

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/pages"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Root = "/site"
	return cfg
}

func testEntries() []pages.Descriptor {
	return pages.GenerateEntries("/site/src/pages", "html", []string{"index", "about"})
}

func TestBase(t *testing.T) {
	d := Base(testConfig(), testEntries())

	assert.Equal(t, "bundle", d.Entry.Name)
	assert.Equal(t, filepath.Join("/site", "src", "app.js"), d.Entry.Path)
	assert.Equal(t, "js/[name].[contenthash:7].js", d.Output.Script)
	assert.Equal(t, "css/[name].[contenthash:7].css", d.Output.Style)
	assert.Equal(t, "/", d.Output.PublicPath)
	assert.Equal(t, filepath.Join("/site", "src", "assets", "images"), d.Aliases["~images"])
	assert.Len(t, d.Rules, 4)
	assert.Len(t, d.Pages, 2)
	assert.Equal(t, "esnext", d.Target)
	assert.True(t, d.HasPlugin(PluginClean))
	assert.True(t, d.HasPlugin(PluginCopy))
	assert.False(t, d.HasPlugin(PluginProvide))
	assert.Empty(t, d.Mode)
}

func TestForMode_Development(t *testing.T) {
	base := Base(testConfig(), testEntries())
	d, err := ForMode(config.ModeDevelopment, testConfig(), testEntries())
	require.NoError(t, err)

	assert.Equal(t, config.ModeDevelopment, d.Mode)
	assert.Equal(t, DevtoolSourceMap, d.Devtool)
	require.NotNil(t, d.DevServer)
	assert.Equal(t, 3000, d.DevServer.Port)
	assert.True(t, d.DevServer.LiveReload)
	assert.Equal(t, []string{"node_modules"}, d.WatchIgnore)
	assert.False(t, d.Minify)
	assert.Nil(t, d.Performance)
	assert.Equal(t, append(base.Plugins, PluginLiveReload), d.Plugins, "plugins are appended")
	assert.Equal(t, []StyleRule{{Match: "*.css", Extract: true}}, d.Styles)
}

func TestForMode_Production(t *testing.T) {
	d, err := ForMode(config.ModeProduction, testConfig(), testEntries())
	require.NoError(t, err)

	assert.Equal(t, config.ModeProduction, d.Mode)
	assert.Equal(t, DevtoolNone, d.Devtool)
	assert.True(t, d.Minify)
	assert.Equal(t, ProductionTarget, d.Target)
	require.NotNil(t, d.Performance)
	assert.EqualValues(t, 512000, d.Performance.MaxEntrypointSize)
	assert.EqualValues(t, 512000, d.Performance.MaxAssetSize)
	assert.Nil(t, d.DevServer)
	assert.True(t, d.HasPlugin(PluginImageMinimizer))
	assert.True(t, d.HasPlugin(PluginTranspile))
	assert.True(t, d.HasPlugin(PluginHTMLPages), "base plugins survive")
	assert.Len(t, d.Rules, 4, "base asset rules survive")
	assert.True(t, d.Styles[0].Autoprefix)
}

func TestForMode_Unknown(t *testing.T) {
	_, err := ForMode(config.Mode("staging"), testConfig(), nil)
	require.Error(t, err)
	assert.Equal(t, "mode", errors.FieldOf(err))
}

func TestApply_DoesNotModifyBase(t *testing.T) {
	base := Base(testConfig(), testEntries())
	base.Plugins = make([]string, 1, 8)
	base.Plugins[0] = PluginHTMLPages
	base.Provide = map[string]string{"$": "jquery"}

	out, err := Apply(base, Descriptor{
		Plugins: []string{"extra"},
		Provide: map[string]string{"jQuery": "jquery", "$": "zepto"},
		Target:  "es2015",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{PluginHTMLPages, "extra"}, out.Plugins)
	assert.Equal(t, []string{PluginHTMLPages}, base.Plugins)
	assert.Equal(t, map[string]string{"$": "zepto", "jQuery": "jquery"}, out.Provide)
	assert.Equal(t, map[string]string{"$": "jquery"}, base.Provide)
	assert.Equal(t, "es2015", out.Target)
}

func TestEncode(t *testing.T) {
	d, err := ForMode(config.ModeProduction, testConfig(), testEntries())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, d.Encode(&buf, "yaml"))
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "production", doc["mode"])
	assert.Contains(t, buf.String(), "strategy: sprite")

	buf.Reset()
	require.NoError(t, d.Encode(&buf, "json"))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "es2017", doc["target"])

	assert.Error(t, d.Encode(&buf, "xml"))
}

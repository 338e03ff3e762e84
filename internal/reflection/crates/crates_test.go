package crates_test

import (
	"testing"

	"github.com/shopware/php-analyser/internal/analysistest"
	"github.com/shopware/php-analyser/internal/reflection/crates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtension(t *testing.T) {
	h := analysistest.New(t)
	h.LoadSources(map[string]string{"src/Config.php": `<?php
namespace App;

class Config extends \stdClass
{
}

class Plain
{
}
`})
	b := h.CreateBroker(nil, nil)
	extension := crates.NewExtension([]string{"\\stdClass", "App\\Plain"})

	for _, name := range []string{"stdClass", "App\\Config", "App\\Plain"} {
		class, err := b.GetClass(name)
		require.NoError(t, err)

		assert.True(t, extension.IsCrate(class), name)
		assert.True(t, extension.HasProperty(class, "anything"), name)
		property := extension.GetProperty(class, "anything")
		assert.Equal(t, "mixed", property.Type().Name())
		assert.True(t, property.IsReadable())
		assert.True(t, property.IsWritable())
		assert.Same(t, class, property.DeclaringClass())
	}

	date, err := b.GetClass("DateTime")
	require.NoError(t, err)
	assert.False(t, extension.IsCrate(date))
	assert.False(t, crates.NewExtension(nil).HasProperty(date, "anything"))
}

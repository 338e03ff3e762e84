package phpdefect_test

import (
	"testing"

	"github.com/shopware/php-analyser/internal/analysistest"
	"github.com/shopware/php-analyser/internal/reflection/phpdefect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInClassProperties(t *testing.T) {
	h := analysistest.New(t)
	h.LoadSources(map[string]string{"src/Interval.php": `<?php
namespace App;

class Interval extends \DateInterval
{
}
`})
	b := h.CreateBroker(nil, nil)
	extension := phpdefect.NewExtension(h.GetFileTypeMapper().TypeStringResolver())

	tests := []struct {
		class    string
		property string
		typ      string
	}{
		{"DateInterval", "days", "false|int"},
		{"DateInterval", "f", "float"},
		{"App\\Interval", "invert", "int"},
		{"DatePeriod", "current", "DateTimeInterface|null"},
	}
	for _, tt := range tests {
		t.Run(tt.class+"::$"+tt.property, func(t *testing.T) {
			class, err := b.GetClass(tt.class)
			require.NoError(t, err)

			require.True(t, extension.HasProperty(class, tt.property))
			property := extension.GetProperty(class, tt.property)
			assert.Equal(t, tt.typ, property.Type().Name())
			assert.True(t, property.IsPublic())
			assert.Same(t, class, property.DeclaringClass())
		})
	}

	interval, err := b.GetClass("DateInterval")
	require.NoError(t, err)
	assert.False(t, extension.HasProperty(interval, "missing"))
	assert.Nil(t, extension.GetProperty(interval, "missing"))
	assert.False(t, extension.HasProperty(interval, "Days"))
}

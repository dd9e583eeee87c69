package currencies

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	t.Parallel()

	t.Run("default lookup", func(t *testing.T) {
		t.Parallel()

		table := Default()

		c, ok := table.Currency("mx")
		assert.True(t, ok)
		assert.Equal(t, MXN, c)

		c, ok = table.Currency("SV")
		assert.True(t, ok)
		assert.Equal(t, USD, c)

		_, ok = table.Currency("ZZ")
		assert.False(t, ok)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()

		base := Default()
		table := base.With(map[string]string{
			"ec": "usd",
			"MX": "USD",
		})

		c, ok := table.Currency("EC")
		assert.True(t, ok)
		assert.Equal(t, USD, c)

		c, _ = table.Currency("MX")
		assert.Equal(t, USD, c)

		// The base table is untouched
		c, _ = base.Currency("MX")
		assert.Equal(t, MXN, c)
		assert.Len(t, table.Countries(), len(base)+1)
	})
}

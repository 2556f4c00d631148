package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCopyEmptyText 空文本直接判定失败，不触碰系统剪贴板
func TestCopyEmptyText(t *testing.T) {
	assert.False(t, NewSystemCopier().Copy(""))
}

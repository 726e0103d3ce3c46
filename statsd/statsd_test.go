package statsd

import (
	"testing"
	"time"

	"github.com/veldtgames/veldt/assert"
)

func TestInitRequiresAddress(t *testing.T) {
	assert.IsError(t, Init("", nil))
}

func TestClientDefaultsToNoOp(t *testing.T) {
	assert.NotNil(t, Client())
	// Emission through the no-op client must be safe before Init.
	EmitTickStat(time.Now(), "test_stage")
}

func TestCloseRestoresNoOpClient(t *testing.T) {
	assert.NilError(t, Close())
	assert.NotNil(t, Client())
}

package persistence_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cihooks/postbuild/pkg/persistence"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		runErr := persistence.NewRunError("RunByID", "run-1a2b3c4d", persistence.ErrRunNotFound)

		assert.True(t, persistence.IsRunNotFound(runErr))
		assert.True(t, errors.Is(runErr, persistence.ErrRunNotFound))
		assert.False(t, persistence.IsRunNotFound(errors.New("boom")))
	})

	t.Run("run error contains context", func(t *testing.T) {
		err := persistence.NewRunError("DeleteRun", "run-1a2b3c4d", persistence.ErrRunNotFound)

		assert.Contains(t, err.Error(), "DeleteRun")
		assert.Contains(t, err.Error(), "run-1a2b3c4d")
		assert.Contains(t, err.Error(), "run not found")
	})

	t.Run("run error without id omits the target", func(t *testing.T) {
		err := persistence.NewRunError("Runs", "", errors.New("disk gone"))

		assert.Equal(t, "Runs operation failed: disk gone", err.Error())
	})

	t.Run("run error unwraps to the cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := persistence.NewRunError("SaveRun", "run-1a2b3c4d", cause)

		assert.True(t, errors.Is(err, cause))
	})
}

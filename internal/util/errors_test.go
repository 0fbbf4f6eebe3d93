package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsAppErrorPassesThrough(t *testing.T) {
	err := NotFoundErr("quiz not found")
	assert.Equal(t, err, AsAppError(err))
}

func TestAsAppErrorUnwrapsWrapped(t *testing.T) {
	inner := BadRequestErr("bad input")
	wrapped := fmt.Errorf("handler: %w", inner)
	assert.Equal(t, KindBadRequest, AsAppError(wrapped).Kind)
}

func TestAsAppErrorDefaultsToInternal(t *testing.T) {
	appErr := AsAppError(errors.New("boom"))
	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, "internal server error", appErr.Message)
}

func TestDatabaseErrHidesDetail(t *testing.T) {
	appErr := DatabaseErr(errors.New("Error 1045: access denied for user root"))
	assert.Equal(t, KindDatabase, appErr.Kind)
	assert.Equal(t, "database error", appErr.Message)
}

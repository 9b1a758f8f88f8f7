package repositories

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestWrapDBErrorClassifiesPQCodes(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"23505", ErrDuplicateKey},
		{"23503", ErrForeignKey},
		{"23514", ErrCheckViolation},
		{"22003", ErrValueOutOfRange},
		{"40001", ErrDatabaseError},
	}
	for _, tc := range cases {
		err := wrapDBError(&pq.Error{Code: pq.ErrorCode(tc.code), Constraint: "c"}, "op")
		assert.ErrorIs(t, err, tc.want, tc.code)
	}

	assert.ErrorIs(t, wrapDBError(errors.New("boom"), "op"), ErrDatabaseError)
	assert.NoError(t, wrapDBError(nil, "op"))
}

func TestRequireAffected(t *testing.T) {
	assert.ErrorIs(t, requireAffected(sqlmock.NewResult(0, 0), "delete"), ErrNotFound)
	assert.NoError(t, requireAffected(sqlmock.NewResult(0, 1), "delete"))
}

package leave

import (
	"errors"
	"strings"

	leaveerrors "go-leaveflow/internal/leave/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// mapRepositoryError closes the submit-time check-then-act window: a
// concurrent writer that slipped past the overlap pre-check trips the
// DB constraint at commit, which we surface as the same conflict error.
func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.ErrLeaveNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01": // exclusion constraint on (employee_id, daterange)
			return leaveerrors.ErrLeaveOverlap
		case "23505":
			if pgErr.ConstraintName == "uq_leave_request_number" {
				return err
			}
			return leaveerrors.ErrLeaveOverlap
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "ex_leave_requests_no_overlap") {
		return leaveerrors.ErrLeaveOverlap
	}

	return err
}

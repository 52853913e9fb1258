package exitcode

import (
	"fmt"
	"testing"

	"github.com/schoolblog/blogctl/internal/errors"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, Success},
		{"unauthorized", errors.New(errors.KindUnauthorized, errors.CodeAuthRequired, "not logged in"), AuthError},
		{"validation", errors.New(errors.KindValidation, errors.CodeAPIValidation, "title is required"), UsageError},
		{"not found", errors.New(errors.KindNotFound, errors.CodeAPINotFound, "post not found"), NotFoundError},
		{"network", errors.New(errors.KindNetwork, errors.CodeAPIUnreachable, "backend unreachable"), NetworkError},
		{"busy", errors.New(errors.KindBusy, errors.CodeAuthBusy, "auth in progress"), GeneralError},
		{"plain error", fmt.Errorf("something broke"), GeneralError},
		{"wrapped typed error", fmt.Errorf("login: %w", errors.New(errors.KindUnauthorized, errors.CodeAuthRejected, "rejected")), AuthError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/screen"
	"github.com/granme/caprisystem/internal/session"
	"github.com/granme/caprisystem/internal/storage"
)

// errUsage marks malformed command arguments.
var errUsage = errors.New("invalid arguments")

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, args...)...)
}

// exitCode maps err to exitUserError or exitSysError. Failures of the
// server, the network or local storage are system errors; everything the
// user can fix by changing the request is a user error.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var serr *session.Error
	if errors.As(err, &serr) && serr.Cause != nil {
		err = serr.Cause
	}
	switch apiclient.KindOf(err) {
	case apiclient.KindUnreachable, apiclient.KindServer, apiclient.KindDecode:
		return exitSysError
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Kind == apiclient.KindUnknown {
		return exitSysError
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, storage.ErrDetached) || errors.Is(err, context.DeadlineExceeded) {
		return exitSysError
	}
	return exitUserError
}

// printError writes err for a person. Rejected drafts list every field.
func printError(w io.Writer, err error) {
	if errs, ok := screen.IsValidation(err); ok {
		fmt.Fprintln(w, "Error: el formulario tiene datos inválidos")
		for _, f := range errs.Fields() {
			fmt.Fprintf(w, "  %s: %s\n", f, errs[f])
		}
		return
	}
	fmt.Fprintln(w, "Error:", apiclient.Message(err))
}

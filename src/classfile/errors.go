/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"fmt"

	"typegraph/src/errs"
)

var (
	errCancelled = errs.Cancelled
	errTruncated = &errs.FormatError{Msg: "truncated class file"}
)

func formatErrorf(path, format string, args ...interface{}) error {
	return &errs.FormatError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Package xerr defines the error taxonomy shared by every layer of xfrost:
// a small set of typed, wrapped errors that the CLI driver reduces to a
// single human line and a non-zero exit code, and that callers deeper in
// the stack can branch on with errors.As.
package xerr

// Package logging sets up structured slog output for railcat: JSON lines to a
// size-rotated file under ~/.railcat/logs and, outside server mode, to stderr.
package logging

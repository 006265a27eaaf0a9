package log

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/farout/pkg/errors"
)

// EnableZerologWarnings routes every warning raised through errors.Warn to
// w as a zerolog JSON line. Warnings implementing zerolog.LogObjectMarshaler
// contribute their structured fields. A nil w restores the default handler.
func EnableZerologWarnings(w io.Writer) {
	if w == nil {
		errors.SetZerologWarnFunc(nil)
		return
	}

	zl := zerolog.New(w).With().Timestamp().Str(ComponentKey, "warnings").Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		ev := zl.Warn()
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(warning.Error())
	})
}

package signaling

import (
	"context"
	"fmt"
	"io"
	"strings"

	pion "github.com/pion/webrtc/v4"

	"github.com/tameszaza/p2p/internal/ui"
)

// Exchanger carries session descriptions through the operator: the local
// description is printed for copying, the remote one is read from the
// console line channel.
type Exchanger struct {
	out      io.Writer
	lines    <-chan string
	encoding string
}

// NewExchanger creates an exchanger that prints to out and reads pasted
// descriptions from lines.
func NewExchanger(out io.Writer, lines <-chan string, encoding string) *Exchanger {
	return &Exchanger{
		out:      out,
		lines:    lines,
		encoding: encoding,
	}
}

// Publish prints desc between banners as a single line.
func (x *Exchanger) Publish(desc pion.SessionDescription) error {
	blob, err := Encode(desc, x.encoding)
	if err != nil {
		return err
	}

	kind := strings.ToUpper(desc.Type.String())
	fmt.Fprintln(x.out)
	fmt.Fprintln(x.out, ui.TitleStyle.Render(fmt.Sprintf("%s Copy the %s below and send it to your peer", ui.IconCopy, kind)))
	fmt.Fprintln(x.out, ui.MutedStyle.Render(fmt.Sprintf("----- BEGIN %s -----", kind)))
	fmt.Fprintln(x.out, blob)
	fmt.Fprintln(x.out, ui.MutedStyle.Render(fmt.Sprintf("----- END %s -----", kind)))
	fmt.Fprintln(x.out)
	return nil
}

// Await prompts for the remote description and blocks until a non-empty
// line arrives, the input ends or ctx is cancelled. There is no retry: a
// malformed paste returns a *ParseError.
func (x *Exchanger) Await(ctx context.Context, want pion.SDPType) (pion.SessionDescription, error) {
	kind := strings.ToUpper(want.String())
	fmt.Fprintf(x.out, "%s Paste the %s from your peer and press Enter:\n", ui.IconWaiting, kind)

	for {
		select {
		case <-ctx.Done():
			return pion.SessionDescription{}, ctx.Err()
		case line, ok := <-x.lines:
			if !ok {
				return pion.SessionDescription{}, fmt.Errorf("waiting for %s: %w", want, io.ErrUnexpectedEOF)
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			return Decode(line, want)
		}
	}
}

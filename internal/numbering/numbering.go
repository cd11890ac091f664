package numbering

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Document number templates.
const (
	QuoteTemplate   = "QT-{YY}-{SEQ4}"
	InvoiceTemplate = "INV-{YY}-{SEQ4}"
)

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

// Format renders a document number from a template, an issue time and a
// positive sequence value. Supported tokens: {YYYY} {YY} {MM} {DD} {SEQ} and
// {SEQn} for a zero-padded sequence of width n.
func Format(template string, issuedAt time.Time, seq int64) (string, error) {
	if template == "" {
		return "", fmt.Errorf("numbering: template is empty")
	}
	if seq <= 0 {
		return "", fmt.Errorf("numbering: invalid sequence %d", seq)
	}

	out := template
	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", issuedAt.Format("02"))
	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("numbering: unresolved token in %q", out)
	}
	return out, nil
}

// Sequencer hands out monotonically increasing values per named sequence.
type Sequencer interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

// Issuer combines a template with a sequencer. Sequences are scoped by
// prefix and year so numbering restarts every January.
type Issuer struct {
	Seq      Sequencer
	Template string
	Prefix   string
}

// Next reserves the next number for issuedAt.
func (i Issuer) Next(ctx context.Context, issuedAt time.Time) (string, error) {
	if i.Seq == nil {
		return "", fmt.Errorf("numbering: sequencer not configured")
	}
	name := i.Prefix + ":" + issuedAt.Format("2006")
	seq, err := i.Seq.NextSequence(ctx, name)
	if err != nil {
		return "", fmt.Errorf("numbering: next %s: %w", name, err)
	}
	return Format(i.Template, issuedAt, seq)
}

package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

type tcpConn struct {
	c   net.Conn
	r   *bufio.Reader
	wmu sync.Mutex
}

// NewTCP frames lines on c. Lines longer than maxLine bytes are discarded up
// to their newline and reported as ErrLineTooLong.
func NewTCP(c net.Conn, maxLine int) Conn {
	// room for the terminator
	return &tcpConn{c: c, r: bufio.NewReaderSize(c, normMax(maxLine)+2)}
}

// DialTCP connects to a line server at addr.
func DialTCP(ctx context.Context, addr string, maxLine int) (Conn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewTCP(c, maxLine), nil
}

func (t *tcpConn) ReadLine(ctx context.Context) (string, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = t.c.SetReadDeadline(dl)
	} else {
		_ = t.c.SetReadDeadline(time.Time{})
	}
	line, err := t.r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = t.r.ReadSlice('\n')
		}
		if err != nil {
			return "", err
		}
		return "", ErrLineTooLong
	}
	if err != nil {
		// unterminated final line
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return trimLine(string(line)), nil
		}
		return "", err
	}
	return trimLine(string(line)), nil
}

func (t *tcpConn) WriteLine(ctx context.Context, line string) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = t.c.SetWriteDeadline(dl)
	} else {
		_ = t.c.SetWriteDeadline(time.Time{})
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, err := t.c.Write(buf)
	return err
}

func (t *tcpConn) Close() error { return t.c.Close() }

func (t *tcpConn) RemoteAddr() string { return t.c.RemoteAddr().String() }

func (t *tcpConn) Kind() string { return "tcp" }

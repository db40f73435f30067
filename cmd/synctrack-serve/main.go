// Command synctrack-serve is a minimal stand-in editor: it accepts one
// client connection, runs the handshake, and lets an operator type commands
// on stdin to push down the wire (set <track> <row> <value> [interp],
// delrow <track> <row>, row <n>, pause, play, save, action <n>). Useful for
// exercising a synctrack-based client without a real editor running.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/s53zo/synctrack/config"
	"github.com/s53zo/synctrack/wire"
)

func main() {
	addr := flag.String("listen", "127.0.0.1:1338", "address to listen on")
	configPath := flag.String("config", "", "optional synctrack.yaml to read the listen address from")
	flag.Parse()

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("synctrack-serve: %v", err)
		}
		cfg.Print()
		if cfg.Editor.Endpoint != "" {
			*addr = cfg.Editor.Endpoint
		}
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("synctrack-serve: %v", err)
	}
	defer ln.Close()
	log.Printf("synctrack-serve: listening on %s", *addr)

	conn, err := ln.Accept()
	if err != nil {
		log.Fatalf("synctrack-serve: accept: %v", err)
	}
	defer conn.Close()

	if err := handshake(conn); err != nil {
		log.Fatalf("synctrack-serve: handshake: %v", err)
	}
	log.Printf("synctrack-serve: client connected")

	repl(conn)
}

func handshake(conn net.Conn) error {
	hello := make([]byte, len(wire.ClientHello))
	if _, err := readFull(conn, hello); err != nil {
		return fmt.Errorf("read client hello: %w", err)
	}
	if string(hello) != wire.ClientHello {
		return fmt.Errorf("unexpected client hello %q", hello)
	}
	if _, err := conn.Write([]byte(wire.ServerHello)); err != nil {
		return fmt.Errorf("write server hello: %w", err)
	}

	// Drain every GET_TRACK request the client sends during sync; this
	// harness has no tracks of its own to reply with, so it only logs them.
	tag := make([]byte, 1)
	if _, err := readFull(conn, tag); err != nil {
		return err
	}
	for {
		if tag[0] != wire.TagGetTrack {
			return fmt.Errorf("expected GET_TRACK during handshake, got tag %d", tag[0])
		}
		lenBuf := make([]byte, 4)
		if _, err := readFull(conn, lenBuf); err != nil {
			return err
		}
		nameLen := int(lenBuf[0])<<24 | int(lenBuf[1])<<16 | int(lenBuf[2])<<8 | int(lenBuf[3])
		name := make([]byte, nameLen)
		if _, err := readFull(conn, name); err != nil {
			return err
		}
		log.Printf("synctrack-serve: client requested track %q", name)

		// Peek for more GET_TRACK traffic with a short deadline; once the
		// client moves on to its settle wait, stop treating input as
		// handshake traffic and hand off to the interactive loop.
		if !moreHandshakeTraffic(conn, tag) {
			return nil
		}
	}
}

// moreHandshakeTraffic reads the next tag byte into tag, waiting at most
// 50ms (less than the client's 100ms settle wait), and reports whether it
// starts another GET_TRACK.
func moreHandshakeTraffic(conn net.Conn, tag []byte) bool {
	_ = conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	defer conn.SetReadDeadline(time.Time{})
	n, err := conn.Read(tag)
	if err != nil || n == 0 {
		return false
	}
	return tag[0] == wire.TagGetTrack
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := conn.Read(buf[read:])
		read += n
		if err != nil {
			return read, err
		}
	}
	return read, nil
}

func repl(conn net.Conn) {
	fmt.Println("commands: set <track> <row> <value> [interp] | delrow <track> <row> | row <n> | pause | play | save | action <n>")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := dispatch(conn, fields); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func dispatch(conn net.Conn, fields []string) error {
	switch fields[0] {
	case "set":
		if len(fields) < 4 {
			return fmt.Errorf("usage: set <track> <row> <value> [interp]")
		}
		track, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return err
		}
		row, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return err
		}
		value, err := strconv.ParseFloat(fields[3], 32)
		if err != nil {
			return err
		}
		interp := byte(0)
		if len(fields) > 4 {
			n, err := strconv.ParseUint(fields[4], 10, 8)
			if err != nil {
				return err
			}
			interp = byte(n)
		}
		return sendSetKey(conn, uint32(track), uint32(row), float32(value), interp)
	case "delrow":
		if len(fields) != 3 {
			return fmt.Errorf("usage: delrow <track> <row>")
		}
		track, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return err
		}
		row, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return err
		}
		return sendDeleteKey(conn, uint32(track), uint32(row))
	case "row":
		if len(fields) != 2 {
			return fmt.Errorf("usage: row <n>")
		}
		row, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return err
		}
		return sendRow(conn, uint32(row))
	case "pause":
		return sendPause(conn, 1)
	case "play":
		return sendPause(conn, 0)
	case "save":
		_, err := conn.Write([]byte{wire.TagSaveTracks})
		return err
	case "action":
		if len(fields) != 2 {
			return fmt.Errorf("usage: action <n>")
		}
		n, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return err
		}
		return sendRowTagged(conn, wire.TagAction, uint32(n))
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func sendSetKey(conn net.Conn, trackIdx, row uint32, value float32, interp byte) error {
	buf := make([]byte, 0, 14)
	buf = append(buf, wire.TagSetKey)
	buf = appendU32(buf, trackIdx)
	buf = appendU32(buf, row)
	buf = appendU32(buf, wire.Float32Bits(value))
	buf = append(buf, interp)
	_, err := conn.Write(buf)
	return err
}

func sendDeleteKey(conn net.Conn, trackIdx, row uint32) error {
	buf := make([]byte, 0, 9)
	buf = append(buf, wire.TagDeleteKey)
	buf = appendU32(buf, trackIdx)
	buf = appendU32(buf, row)
	_, err := conn.Write(buf)
	return err
}

func sendRow(conn net.Conn, row uint32) error {
	return sendRowTagged(conn, wire.TagSetRow, row)
}

func sendRowTagged(conn net.Conn, tag byte, v uint32) error {
	buf := make([]byte, 0, 5)
	buf = append(buf, tag)
	buf = appendU32(buf, v)
	_, err := conn.Write(buf)
	return err
}

func sendPause(conn net.Conn, paused byte) error {
	_, err := conn.Write([]byte{wire.TagPause, paused})
	return err
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

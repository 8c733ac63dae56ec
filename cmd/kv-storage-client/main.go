// Command kv-storage-client is an interactive REPL for the kv-storage
// server: each line of input is tokenized on whitespace into a request's
// arguments, sent as one framed request, and the decoded reply is printed.
// Blank lines are a no-op; EOF ends the session. Grounded on kv_client.cpp's
// main/process_request loop and client_utils.cpp's send_request/recv_request.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/qmmzzdx/kv-storage-server/internal/wire"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:1234", "server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("connected to %s\n", *addr)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		args := make([][]byte, len(fields))
		for i, f := range fields {
			args[i] = []byte(f)
		}

		if err := sendRequest(conn, args); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			continue
		}
		reply, err := recvReply(conn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "recv: %v\n", err)
			return
		}
		printValue(reply, 0)
	}
}

func sendRequest(w io.Writer, args [][]byte) error {
	frame, err := wire.EncodeRequest(args)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

func recvReply(r io.Reader) (wire.Value, error) {
	var hdr [wire.HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return wire.Value{}, err
	}
	length := binary.LittleEndian.Uint32(hdr[:])
	if length > wire.MaxMsg {
		return wire.Value{}, fmt.Errorf("reply too large: %d", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return wire.Value{}, err
	}

	v, _, err := wire.DecodeValue(body)
	return v, err
}

func printValue(v wire.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v.Kind {
	case wire.KindNil:
		fmt.Printf("%s(nil)\n", indent)
	case wire.KindStr:
		fmt.Printf("%s%q\n", indent, v.Str)
	case wire.KindInt:
		fmt.Printf("%s%d\n", indent, v.Int)
	case wire.KindErr:
		fmt.Printf("%s(error) %d %s\n", indent, v.ErrCode, v.ErrMsg)
	case wire.KindArr:
		fmt.Printf("%s(array, %d elements)\n", indent, len(v.Arr))
		for _, e := range v.Arr {
			printValue(e, depth+1)
		}
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Thermoquad/bootlink/pkg/bootio"
	"github.com/spf13/cobra"
)

// Exit codes shared by the frame commands
const (
	exitOK        = 0
	exitLineError = 1
	exitConnError = 2
)

const frameExitCodes = `
Exit codes:
  0 - Success
  1 - Line error (timeout, framing or checksum)
  2 - Connection or usage error`

var recvDataOut string

var sendValCmd = &cobra.Command{
	Use:   "sendval <value>",
	Short: "Send a value frame",
	Long: `Send one value frame: the byte followed by its bitwise complement.

The value accepts decimal, 0x hex, 0o octal or 0b binary notation.` + frameExitCodes,
	Args: cobra.ExactArgs(1),
	RunE: runSendVal,
}

var recvValCmd = &cobra.Command{
	Use:   "recvval",
	Short: "Receive a value frame",
	Long: `Wait for one value frame and print its value.

The frame is rejected unless the second byte is the complement of the first.` + frameExitCodes,
	Args: cobra.NoArgs,
	RunE: runRecvVal,
}

var sendDataCmd = &cobra.Command{
	Use:   "senddata <file>",
	Short: "Send a file as a block frame",
	Long: `Send up to 1024 bytes from a file as one block frame.

The payload is padded with 0xFF (erased flash) to a multiple of 4 bytes. The
frame is a length code value frame, the payload and its CRC-32.` + frameExitCodes,
	Args: cobra.ExactArgs(1),
	RunE: runSendData,
}

var recvDataCmd = &cobra.Command{
	Use:   "recvdata",
	Short: "Receive a block frame",
	Long: `Wait for one block frame, verify its CRC-32 and print the payload as a hex
dump, or write it to a file with --out.` + frameExitCodes,
	Args: cobra.NoArgs,
	RunE: runRecvData,
}

func init() {
	rootCmd.AddCommand(sendValCmd, recvValCmd, sendDataCmd, recvDataCmd)
	recvDataCmd.Flags().StringVarP(&recvDataOut, "out", "o", "", "Write the payload to a file")
}

// parseValue parses a byte in any Go integer literal notation
func parseValue(arg string) (byte, error) {
	v, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: must be 0 to 255", arg)
	}
	return byte(v), nil
}

// openOrExit opens a session or exits with the connection error code
func openOrExit() *Session {
	s, err := OpenSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(exitConnError)
	}
	return s
}

// exitOnLineError prints a receive failure and exits with the matching code
func exitOnLineError(s *Session, err error) {
	lost := s.Port.Err() != nil
	err = s.check(err)
	s.Close()
	fmt.Fprintf(os.Stderr, "%s: %v\n", bootio.FormatErrorKind(err), err)
	if lost {
		os.Exit(exitConnError)
	}
	os.Exit(exitLineError)
}

func runSendVal(cmd *cobra.Command, args []string) error {
	v, err := parseValue(args[0])
	if err != nil {
		return err
	}

	s := openOrExit()
	defer s.Close()

	s.Transport.SendVal(v)
	if err := s.Port.Err(); err != nil {
		return fmt.Errorf("send failed: %v", err)
	}
	fmt.Printf("Sent value 0x%02X (%d) on %s\n", v, v, s.Info)
	return nil
}

func runRecvVal(cmd *cobra.Command, args []string) error {
	s := openOrExit()
	defer s.Close()

	v, err := s.Transport.RecvVal()
	if err != nil {
		exitOnLineError(s, err)
	}
	fmt.Printf("0x%02X (%d)\n", v, v)
	return nil
}

func runSendData(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", args[0], err)
	}
	if len(data) == 0 || len(data) > bootio.MaxBlockSize {
		return fmt.Errorf("%s is %d bytes, a block carries 1 to %d", args[0], len(data), bootio.MaxBlockSize)
	}
	payload := bootio.PadBlock(data)
	code, err := bootio.LengthCode(len(payload))
	if err != nil {
		return err
	}

	s := openOrExit()
	defer s.Close()

	if err := s.Transport.SendData(payload); err != nil {
		return err
	}
	if err := s.Port.Err(); err != nil {
		return fmt.Errorf("send failed: %v", err)
	}
	fmt.Printf("Sent block: %d bytes (%d padding), code 0x%02X, CRC 0x%08X\n",
		len(payload), len(payload)-len(data), code, bootio.CRC32(payload))
	return nil
}

func runRecvData(cmd *cobra.Command, args []string) error {
	s := openOrExit()
	defer s.Close()

	buf := make([]byte, bootio.MaxBlockSize)
	n, err := s.Transport.RecvData(buf)
	if err != nil {
		exitOnLineError(s, err)
	}

	if recvDataOut != "" {
		if err := os.WriteFile(recvDataOut, buf[:n], 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %v", recvDataOut, err)
		}
		fmt.Printf("Received block: %d bytes written to %s\n", n, recvDataOut)
		return nil
	}
	fmt.Printf("Received block: %d bytes, CRC 0x%08X\n", n, bootio.CRC32(buf[:n]))
	fmt.Print(bootio.FormatPayload(buf[:n]))
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/strataform/pgclient/client"
	"github.com/strataform/pgclient/codec"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "rewrite":
		handleRewrite(os.Args[2:])
	case "bytea":
		handleBytea(os.Args[2:])
	case "types":
		handleTypes()
	case "version", "-v", "--version":
		fmt.Printf("pgclient v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		printError(fmt.Sprintf("Unknown command: %s", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(colorBold(colorCyan("pgclient CLI")) + " - Inspect placeholder rewriting, type mappings and bytea literals\n")
	fmt.Println("Usage:")
	fmt.Println("  pgclient " + colorYellow("<command>") + " [arguments]\n")
	fmt.Println("Commands:")
	fmt.Println("  " + colorGreen("rewrite") + "   Show the positional rewrite of a statement with ? placeholders")
	fmt.Println("  " + colorGreen("bytea") + "     Encode or decode a bytea literal (bytea encode <hex> | bytea decode <literal>)")
	fmt.Println("  " + colorGreen("types") + "     List the supported wire type OIDs and their tags")
	fmt.Println("  " + colorGreen("version") + "   Show version information")
	fmt.Println("  " + colorGreen("help") + "      Show this help message")
}

func printError(msg string) {
	fmt.Fprintln(os.Stderr, colorRed("Error: ")+msg)
}

func handleRewrite(args []string) {
	if len(args) != 1 {
		printError("usage: pgclient rewrite '<sql>'")
		os.Exit(1)
	}

	rewritten, count := client.Rewrite(args[0])
	fmt.Println(rewritten)
	fmt.Printf("%s %d\n", colorCyan("placeholders:"), count)
}

func handleBytea(args []string) {
	if len(args) != 2 {
		printError("usage: pgclient bytea encode <hex> | pgclient bytea decode <literal>")
		os.Exit(1)
	}

	switch args[0] {
	case "encode":
		var raw []byte
		if _, err := fmt.Sscanf(args[1], "%X", &raw); err != nil {
			printError(fmt.Sprintf("invalid hex input: %v", err))
			os.Exit(1)
		}
		fmt.Println(codec.EncodeBytea(raw))
	case "decode":
		raw, err := codec.DecodeBytea(args[1])
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}
		fmt.Printf("%X\n", raw)
	default:
		printError(fmt.Sprintf("unknown bytea subcommand: %s", args[0]))
		os.Exit(1)
	}
}

func handleTypes() {
	oids := []uint32{16, 17, 18, 19, 20, 21, 23, 25, 114, 700, 701, 1042, 1043, 1082, 1083, 1114, 1184, 1266, 2950, 3802}
	fmt.Println(colorBold("OID   Tag"))
	for _, oid := range oids {
		tag, _ := codec.TagForOID(oid)
		fmt.Printf("%-5d %s\n", oid, tag)
	}
}

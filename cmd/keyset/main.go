package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.dedis.ch/kyber/v3/util/random"
	"gopkg.in/urfave/cli.v1"

	"multicipher"
	"multicipher/keyset"
	simul "multicipher/simulation"
)

const REPEAT = 20
const SPECS_STR = "128:2,128:3,256:3,256:5"
const LENGTHS_STR = "0,16,1024,65536"

var commonFlags = []cli.Flag{
	cli.StringFlag{Name: "config, c", Usage: "YAML configuration file"},
	cli.StringFlag{Name: "secret, s", Usage: "hex encoded secret the key set is derived from"},
	cli.IntFlag{Name: "key-length, k", Usage: "key length in bits (128, 192, 256)"},
	cli.IntFlag{Name: "steps, n", Usage: "number of chained ciphers"},
	cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, error"},
	cli.StringFlag{Name: "algorithms", Usage: "comma separated algorithms to restrict the key set to"},
}

var ioFlags = append([]cli.Flag{
	cli.StringFlag{Name: "in, i", Usage: "input file (default stdin)"},
	cli.StringFlag{Name: "out, o", Usage: "output file (default stdout)"},
	cli.StringFlag{Name: "aad, a", Usage: "associated data, switches to the authenticated envelope"},
}, commonFlags...)

func main() {
	app := cli.NewApp()
	app.Name = "keyset"
	app.Usage = "multi-cipher envelopes derived from a secret"
	app.Version = "0.1"
	app.Commands = []cli.Command{
		{
			Name:    "encrypt",
			Aliases: []string{"e"},
			Flags:   ioFlags,
			Action:  encrypt,
		},
		{
			Name:    "decrypt",
			Aliases: []string{"d"},
			Flags:   ioFlags,
			Action:  decrypt,
		},
		{
			Name:    "wrap",
			Aliases: []string{"w"},
			Flags:   ioFlags,
			Action:  wrap,
		},
		{
			Name:    "unwrap",
			Aliases: []string{"u"},
			Flags:   ioFlags,
			Action:  unwrap,
		},
		{
			Name:   "secret",
			Usage:  "print a fresh random secret",
			Action: newSecret,
		},
		{
			Name:    "info",
			Aliases: []string{"i"},
			Flags:   commonFlags,
			Action:  info,
		},
		{
			Name:    "simul",
			Aliases: []string{"s"},
			Usage:   "measure CPU time and overhead, " + SPECS_STR,
			Action:  simulation,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// transform reads the input, applies f with the configured key set and
// writes the result.
func transform(c *cli.Context, f func(ks *keyset.KeySet, in []byte) ([]byte, error)) error {
	cfg, err := fromContext(c)
	if err != nil {
		return err
	}
	ks, err := cfg.keySet()
	if err != nil {
		return err
	}
	in, err := readInput(c.String("in"))
	if err != nil {
		return err
	}
	out, err := f(ks, in)
	if err != nil {
		return err
	}
	return writeOutput(c.String("out"), out)
}

func encrypt(c *cli.Context) error {
	return transform(c, func(ks *keyset.KeySet, in []byte) ([]byte, error) {
		if c.IsSet("aad") {
			return ks.EncryptAAD([]byte(c.String("aad")), in)
		}
		return ks.Encrypt(in)
	})
}

func decrypt(c *cli.Context) error {
	return transform(c, func(ks *keyset.KeySet, in []byte) ([]byte, error) {
		if c.IsSet("aad") {
			return ks.DecryptAAD([]byte(c.String("aad")), in)
		}
		return ks.Decrypt(in)
	})
}

func wrap(c *cli.Context) error {
	return transform(c, func(ks *keyset.KeySet, in []byte) ([]byte, error) {
		return ks.SecureBytes(in)
	})
}

func unwrap(c *cli.Context) error {
	return transform(c, func(ks *keyset.KeySet, in []byte) ([]byte, error) {
		return ks.DeriveBytes(in)
	})
}

func newSecret(c *cli.Context) error {
	secret := make([]byte, 2*keyset.MinSecretLength)
	random.Bytes(secret, random.New())
	fmt.Println(hex.EncodeToString(secret))
	return nil
}

func info(c *cli.Context) error {
	cfg, err := fromContext(c)
	if err != nil {
		return err
	}
	ks, err := cfg.keySet()
	if err != nil {
		return err
	}
	fmt.Print(ks.Describe())
	for _, n := range toIntArray(LENGTHS_STR) {
		fmt.Printf("  %6d bytes: encrypt %d, encrypt-aad %d, wrap %d\n", n,
			ks.EncryptionLength(n, false), ks.EncryptionLength(n, true), ks.WrapLength(n))
	}
	fmt.Printf("  key set wrap: %d\n", ks.KeySetWrapLength())
	return nil
}

func simulation(c *cli.Context) error {
	specs, err := toSpecs(SPECS_STR)
	if err != nil {
		return err
	}
	lengths := toIntArray(LENGTHS_STR)

	multicipher.Logger.Info().Msg("Computing the overhead of every envelope")
	out, err := simul.MeasureOverhead(specs, lengths)
	if err != nil {
		return err
	}
	fmt.Println(out)

	multicipher.Logger.Info().Msg("Computing CPU time of every operation")
	out, err = simul.MeasureTime(REPEAT, specs, lengths)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func toIntArray(s string) []int {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			panic(err)
		}
		out = append(out, i)
	}
	return out
}

// toSpecs parses "keyLength:steps" pairs.
func toSpecs(s string) ([]keyset.Spec, error) {
	var specs []keyset.Spec
	for _, p := range strings.Split(s, ",") {
		kv := strings.SplitN(p, ":", 2)
		if len(kv) != 2 {
			return nil, errors.Newf("spec %q is not keyLength:steps", p)
		}
		k, err := strconv.Atoi(kv[0])
		if err != nil {
			return nil, errors.Wrapf(err, "spec %q", p)
		}
		n, err := strconv.Atoi(kv[1])
		if err != nil {
			return nil, errors.Wrapf(err, "spec %q", p)
		}
		specs = append(specs, keyset.Spec{KeyLength: k, CipherSteps: n})
	}
	return specs, nil
}

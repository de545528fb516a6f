package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/blockminer/foundation/blockchain/block"
	"github.com/ardanlabs/blockminer/foundation/blockchain/coinbase"
	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
	"github.com/ardanlabs/blockminer/foundation/blockchain/header"
	"github.com/ardanlabs/blockminer/foundation/blockchain/policy"
	"github.com/ardanlabs/blockminer/foundation/blockchain/pow"
	"github.com/ardanlabs/blockminer/foundation/blockchain/report"
	"github.com/ardanlabs/blockminer/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

// deriveTarget is the Mining.Target value that selects the target encoded
// in Block.Bits.
const deriveTarget = "bits"

func main() {

	// Construct the application logger.
	log, err := logger.New("MINER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Pool struct {
			Folder string `conf:"default:mempool"`
		}
		Report struct {
			Path string `conf:"default:output.txt"`
		}
		Block struct {
			Version   int32  `conf:"default:2"`
			PrevBlock string `conf:"default:0000000000000000000000000000000000000000000000000000000000000000"`
			Bits      string `conf:"default:1f00ffff"`
			Timestamp uint32 `conf:"default:0,help:unix seconds or 0 for the current time"`
			Reward    uint64 `conf:"default:625000000"`
		}
		Mining struct {
			Target      string        `conf:"default:bits,help:64 hex characters or bits to use Block.Bits"`
			MaxAttempts uint64        `conf:"default:4294967296"`
			Workers     int           `conf:"default:4"`
			Retries     int           `conf:"default:3"`
			Timeout     time.Duration `conf:"default:10m"`
		}
		Policy struct {
			Name string `conf:"default:default"`
		}
		Miner struct {
			KeyPath string `conf:"default:zblock/miner.ecdsa"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "MINER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Block Settings

	prevBlock, err := hash.FromHex(cfg.Block.PrevBlock)
	if err != nil {
		return fmt.Errorf("parsing prev block: %w", err)
	}

	bits, err := parseBits(cfg.Block.Bits)
	if err != nil {
		return err
	}

	target, err := parseTarget(cfg.Mining.Target, bits)
	if err != nil {
		return err
	}

	// A header mined against an explicit target still carries Block.Bits.
	// Other nodes judge the block by the bits, so flag a disagreement.
	if !targetMatchesBits(target, bits) {
		log.Warnw("startup", "status", "target differs from bits", "target", pow.TargetHex(target), "bits", cfg.Block.Bits)
	}

	pol, err := policy.Retrieve(cfg.Policy.Name)
	if err != nil {
		return fmt.Errorf("retrieving policy: %w", err)
	}

	timestamp := cfg.Block.Timestamp
	if timestamp == 0 {
		timestamp = uint32(time.Now().Unix())
	}

	log.Infow("startup", "status", "block settings", "target", pow.TargetHex(target), "policy", cfg.Policy.Name, "timestamp", timestamp)

	// =========================================================================
	// Miner Identity

	// The coinbase pays the reward to the address of the miner key. A key is
	// generated the first time the miner runs.
	address, err := minerAddress(log, cfg.Miner.KeyPath)
	if err != nil {
		return err
	}

	log.Infow("startup", "status", "miner identity", "address", address)

	// =========================================================================
	// Event Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. Every message of this run carries the same trace id.
	traceID := uuid.NewString()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", traceID)
	}

	// =========================================================================
	// Mining Support

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mining.Timeout)
	defer cancel()

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	go func() {
		select {
		case sig := <-shutdown:
			log.Infow("shutdown", "status", "shutdown started", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	m := miner{
		log:       log,
		ev:        ev,
		fsys:      afero.NewOsFs(),
		poolDir:   cfg.Pool.Folder,
		policy:    pol,
		workers:   cfg.Mining.Workers,
		target:    target,
		attempts:  cfg.Mining.MaxAttempts,
		retries:   cfg.Mining.Retries,
		blockConf: block.Config{
			Version:   cfg.Block.Version,
			PrevBlock: prevBlock,
			Bits:      bits,
			Timestamp: timestamp,
			Coinbase:  coinbase.New(cfg.Block.Reward, address),
		},
	}

	mined, err := m.run(ctx)
	if err != nil {
		return err
	}

	// =========================================================================
	// Report

	if err := m.writeReport(cfg.Report.Path, mined); err != nil {
		return err
	}

	return nil
}

// =============================================================================

func parseBits(s string) ([header.BitsSize]byte, error) {
	var bits [header.BitsSize]byte

	b, err := hex.DecodeString(s)
	if err != nil {
		return bits, fmt.Errorf("parsing bits: %w", err)
	}

	if len(b) != header.BitsSize {
		return bits, fmt.Errorf("parsing bits: %w", &header.FieldSizeError{Field: "bits", Want: header.BitsSize, Got: len(b)})
	}
	copy(bits[:], b)

	return bits, nil
}

func parseTarget(s string, bits [header.BitsSize]byte) (*uint256.Int, error) {
	if s == deriveTarget {
		target, err := header.CompactToTarget(bits)
		if err != nil {
			return nil, fmt.Errorf("deriving target: %w", err)
		}
		return target, nil
	}

	target, err := pow.ParseTarget(s)
	if err != nil {
		return nil, fmt.Errorf("parsing target: %w", err)
	}

	return target, nil
}

// targetMatchesBits reports whether the target is the one the bits decode to.
func targetMatchesBits(target *uint256.Int, bits [header.BitsSize]byte) bool {
	derived, err := header.CompactToTarget(bits)
	if err != nil {
		return false
	}
	return derived.Eq(target)
}

// minerAddress stays on the OS filesystem since the key is read and written
// through go-ethereum's path based LoadECDSA and SaveECDSA.
func minerAddress(log *zap.SugaredLogger, path string) (common.Address, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Infow("startup", "status", "generating miner key", "path", path)
		if _, err := coinbase.GenerateKey(path); err != nil {
			return common.Address{}, fmt.Errorf("generating miner key: %w", err)
		}
	}

	address, err := coinbase.LoadAddress(path)
	if err != nil {
		return common.Address{}, err
	}

	return address, nil
}

// writeReport persists the mined block, then reads the report back and
// checks it on its own terms.
func (m miner) writeReport(path string, mined block.Mined) error {
	if err := report.Write(m.fsys, path, mined); err != nil {
		return err
	}

	rpt, err := report.Read(m.fsys, path)
	if err != nil {
		return err
	}

	if err := report.Verify(rpt, m.target); err != nil {
		return fmt.Errorf("verifying report: %w", err)
	}

	m.log.Infow("report", "status", "written", "path", path, "hash", mined.Hash, "txs", len(mined.TxIDs))

	return nil
}

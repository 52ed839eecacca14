package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/jwtgate"
	"github.com/MrEthical07/jwtgate/revocation"
)

const loadSecret = "loadtest-secret-0123456789abcdef"

func main() {
	var (
		tokens      = flag.Int("tokens", 10000, "number of distinct tokens to sign")
		revoked     = flag.Float64("revoked", 0.1, "fraction of tokens to revoke")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "admissions per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", revocation.DefaultPrefix, "revocation key prefix")
	)
	flag.Parse()

	if *tokens <= 0 || *concurrency <= 0 || *ops <= 0 || *revoked < 0 || *revoked > 1 {
		fmt.Fprintln(os.Stderr, "tokens, concurrency, and ops must be > 0; revoked must be within [0,1]")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	list := revocation.NewRedisList(client, *prefix)

	fmt.Printf("signing %d tokens...\n", *tokens)
	startSeed := time.Now()
	signed, err := seedTokens(ctx, list, *tokens, *revoked)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	plain, err := jwtgate.New(loadSecret).WithAlgorithms("HS256").Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build gate: %v\n", err)
		os.Exit(1)
	}
	defer plain.Close()

	withList, err := jwtgate.New(loadSecret).WithAlgorithms("HS256").WithRevocationChecker(list).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build gate: %v\n", err)
		os.Exit(1)
	}
	defer withList.Close()

	decodeStats := runAdmitPhase(plain, signed, *ops, *concurrency)
	revocationStats := runAdmitPhase(withList, signed, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("decode", decodeStats)
	printStats("decode+revocation", revocationStats)
}

// seedTokens signs n tokens and revokes the first fraction of them.
func seedTokens(ctx context.Context, list *revocation.RedisList, n int, fraction float64) ([]string, error) {
	now := time.Now()
	cut := int(float64(n) * fraction)
	out := make([]string, n)
	for i := range out {
		jti := uuid.NewString()
		s, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
			"sub": fmt.Sprintf("user-%d", i),
			"jti": jti,
			"iat": now.Unix(),
			"exp": now.Add(24 * time.Hour).Unix(),
		}).SignedString([]byte(loadSecret))
		if err != nil {
			return nil, err
		}
		out[i] = s
		if i < cut {
			if err := list.Revoke(ctx, jti, 24*time.Hour); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// runAdmitPhase counts anything other than an authenticated admission as a
// failure, so revoked tokens show up there too.
func runAdmitPhase(gate *jwtgate.Gate, tokens []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.Header.Set("Authorization", "Bearer "+tokens[r.Intn(len(tokens))])

				t0 := time.Now()
				decision, err := gate.Admit(req, jwtgate.NewRequestContext())
				d := time.Since(t0)
				if err != nil || decision != jwtgate.DecisionAuthenticated {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

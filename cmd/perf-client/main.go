package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"connectrpc.com/connect"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/rpc"
	"github.com/kkkkikiki/training/internal/timeline"
)

// PerfResult gathers aggregated metrics for the test run.
// Atomic counters are used to avoid lock‑contention on hot paths.
// LatencySum & P95Latency are in nanoseconds.
//
// P95Latency is maintained via a lightweight reservoir sampler.
type PerfResult struct {
	TotalRequests  int64
	SuccessCount   int64
	ExhaustedCount int64
	ErrorCount     int64
	LatencySum     int64
	P95Latency     int64
}

const (
	baseURL         = "http://localhost"
	fixedWorkers    = 50
	fixedRPSTarget  = 700
	defaultTimeout  = 30 * time.Second
	fixedCapacity   = 500
	fixedApplicants = 5000
	fixedDays       = 5
)

func main() {
	// ─── Fixed Configuration ─────────────────────────────────────
	rps := fixedRPSTarget
	workers := fixedWorkers
	capacity := fixedCapacity
	applicants := fixedApplicants

	// ─── HTTP Client & Transport ─────────────────────────────────
	transport := &http.Transport{
		MaxIdleConns:        workers * 4,
		MaxIdleConnsPerHost: workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}
	client := rpc.NewTrainingServiceClient(httpClient, baseURL)

	// ─── Program & applications ──────────────────────────────────
	programID, err := createNewProgram(client, capacity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create program: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ 새 프로그램 생성됨: ID %s (정원 %d명)\n", programID, capacity)

	applicationIDs, err := applyAll(client, programID, applicants, workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to apply: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ 신청 완료: %d건\n", len(applicationIDs))

	// ─── Banner ──────────────────────────────────────────────────
	fmt.Println("==========================================")
	fmt.Println("🚀 수강 승인 동시성 부하 테스트 (uniform)")
	fmt.Println("==========================================")
	fmt.Printf("프로그램 ID: %s\n", programID)
	fmt.Printf("정원       : %d\n", capacity)
	fmt.Printf("승인 요청  : %d\n", len(applicationIDs))
	fmt.Printf("RPS        : %d\n", rps)
	fmt.Println("==========================================")

	// ─── Rate limiter ───────────────────────────────────────────
	burst := rps / workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	var result PerfResult
	var wg sync.WaitGroup

	// latencyChan collects latencies for P95 estimation.
	latencyChan := make(chan time.Duration, 4096)
	p95Done := make(chan struct{})
	go func() {
		trackP95(latencyChan, &result)
		close(p95Done)
	}()

	jobs := make(chan string)
	go func() {
		for _, id := range applicationIDs {
			jobs <- id
		}
		close(jobs)
	}()

	start := time.Now()

	// ─── Workers ────────────────────────────────────────────────
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := limiter.Wait(context.Background()); err != nil {
					return
				}
				doApprove(client, id, &result, latencyChan)
			}
		}()
	}

	// ─── Cleanup ────────────────────────────────────────────────
	wg.Wait()
	close(latencyChan)
	<-p95Done

	totalDur := time.Since(start)

	// ─── Report ─────────────────────────────────────────────────
	fmt.Println("==========================================")
	fmt.Println("📊 성능 테스트 결과")
	fmt.Println("==========================================")
	fmt.Printf("테스트 시간        : %.2f초\n", totalDur.Seconds())
	fmt.Printf("총 요청 수         : %d\n", result.TotalRequests)
	fmt.Printf("승인된 요청        : %d\n", result.SuccessCount)
	fmt.Printf("정원 초과 거절     : %d\n", result.ExhaustedCount)
	fmt.Printf("실패한 요청        : %d\n", result.ErrorCount)

	actualRPS := float64(result.TotalRequests) / totalDur.Seconds()

	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}

	fmt.Printf("실제 RPS           : %.2f\n", actualRPS)
	fmt.Printf("평균 레이턴시      : %v\n", avgLatency)
	fmt.Printf("P95 레이턴시       : %v\n", time.Duration(result.P95Latency))

	fmt.Println("==========================================")

	// ─── Data Consistency Check ─────────────────────────────────
	fmt.Println("==========================================")
	fmt.Println("🔍 데이터 정합성 검증")
	fmt.Println("==========================================")

	if err := verifyDataConsistency(client, programID, result.SuccessCount); err != nil {
		fmt.Printf("❌ 정합성 검증 실패: %v\n", err)
	} else {
		fmt.Println("✅ 데이터 정합성 확인 완료")
	}
	fmt.Println("==========================================")
}

// createNewProgram creates a program starting today with the given capacity.
func createNewProgram(client rpc.TrainingServiceClient, capacity int) (string, error) {
	today := timeline.DayOf(time.Now(), time.UTC)
	req := connect.NewRequest(&rpc.CreateProgramRequest{
		ID:       "perf-" + strconv.FormatInt(time.Now().Unix(), 10),
		Title:    "Load Test Program",
		Category: "Performance",
		TimeZone: "UTC",
		Capacity: capacity,
		Schedule: timeline.RawSchedule{
			Start: today.String(),
			End:   today.AddDays(fixedDays - 1).String(),
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	resp, err := client.CreateProgram(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create program failed: %w", err)
	}
	return resp.Msg.ID, nil
}

// applyAll files one application per synthetic participant.
func applyAll(client rpc.TrainingServiceClient, programID string, n, workers int) ([]string, error) {
	ids := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			pid := fmt.Sprintf("perf-user-%05d", i)
			resp, err := client.Apply(ctx, connect.NewRequest(&rpc.ApplyRequest{
				ProgramID:       programID,
				ParticipantID:   pid,
				ParticipantName: "Perf User " + strconv.Itoa(i),
			}))
			if err != nil {
				errs[i] = fmt.Errorf("apply %s: %w", pid, err)
				return
			}
			ids[i] = resp.Msg.ApplicationID
		}(i)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return ids, nil
}

// doApprove performs a single ApproveEnrollment RPC and collects metrics.
func doApprove(client rpc.TrainingServiceClient, applicationID string, result *PerfResult, latencyChan chan<- time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	req := connect.NewRequest(&rpc.DecideEnrollmentRequest{ApplicationID: applicationID})

	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	resp, err := client.ApproveEnrollment(ctx, req)
	latency := time.Since(start)

	switch {
	case err != nil && rpc.ReasonOf(err) == apperr.ReasonSlotsExhausted:
		atomic.AddInt64(&result.ExhaustedCount, 1)
	case err != nil:
		atomic.AddInt64(&result.ErrorCount, 1)
	case resp.Msg.Status == "approved":
		atomic.AddInt64(&result.SuccessCount, 1)
		atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
		select {
		case latencyChan <- latency:
		default:
		}
	default:
		atomic.AddInt64(&result.ErrorCount, 1)
	}
}

// trackP95 maintains a best‑effort rolling P95 latency estimation.
func trackP95(latencies <-chan time.Duration, result *PerfResult) {
	const size = 1000
	buf := make([]int64, 0, size)

	for lat := range latencies {
		if len(buf) < size {
			buf = append(buf, lat.Nanoseconds())
		} else {
			// Replace random element (simple reservoir sampling)
			if idx := time.Now().UnixNano() % int64(size); idx < int64(size/10) {
				buf[idx] = lat.Nanoseconds()
			}
		}

		// Update P95 periodically
		if len(buf) >= 100 && len(buf)%100 == 0 {
			copyBuf := make([]int64, len(buf))
			copy(copyBuf, buf)
			quickSort(copyBuf)
			p95Index := int(float64(len(copyBuf)) * 0.95)
			if p95Index >= len(copyBuf) {
				p95Index = len(copyBuf) - 1
			}
			atomic.StoreInt64(&result.P95Latency, copyBuf[p95Index])
		}
	}
}

// quickSort sorts the array in ascending order
func quickSort(arr []int64) {
	if len(arr) < 2 {
		return
	}

	left, right := 0, len(arr)-1
	pivot := len(arr) / 2

	arr[pivot], arr[right] = arr[right], arr[pivot]

	for i := range arr {
		if arr[i] < arr[right] {
			arr[left], arr[i] = arr[i], arr[left]
			left++
		}
	}

	arr[left], arr[right] = arr[right], arr[left]

	quickSort(arr[:left])
	quickSort(arr[left+1:])
}

// verifyDataConsistency checks that approvals never exceeded capacity and
// that the remaining slot count matches what the test observed
func verifyDataConsistency(client rpc.TrainingServiceClient, programID string, approved int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.GetProgram(ctx, connect.NewRequest(&rpc.GetProgramRequest{ProgramID: programID}))
	if err != nil {
		return fmt.Errorf("failed to get program: %w", err)
	}

	program := resp.Msg
	capacity := int64(program.Capacity)
	consumed := capacity - int64(program.SlotsRemaining)

	fmt.Printf("프로그램 ID        : %s\n", programID)
	fmt.Printf("정원               : %d\n", capacity)
	fmt.Printf("사용된 자리 (DB)   : %d\n", consumed)
	fmt.Printf("승인된 신청 (테스트): %d\n", approved)
	fmt.Printf("남은 자리          : %d\n", program.SlotsRemaining)
	fmt.Printf("상태               : %s\n", program.Status)

	if consumed != approved {
		return fmt.Errorf("데이터 불일치: DB=%d, 테스트=%d, 차이=%d",
			consumed, approved, consumed-approved)
	}

	// Additional checks
	if program.SlotsRemaining < 0 {
		return fmt.Errorf("over-enrollment 발생: 남은 자리=%d", program.SlotsRemaining)
	}

	if approved > capacity {
		return fmt.Errorf("정원 초과 승인: 승인=%d > 정원=%d", approved, capacity)
	}

	return nil
}

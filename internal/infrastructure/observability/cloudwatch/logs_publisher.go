package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/aratrikkk/UrjaBharat/internal/application/port"
)

const (
	// CloudWatch Logs limits
	maxLogEventsPerRequest = 10000
	maxLogEventSize        = 256000 // 256 KB

	// Upper bound for entries held while CloudWatch is unreachable
	maxBufferedEntries = 5000
)

// logsAPI is the subset of the CloudWatch Logs client used by the publisher.
type logsAPI interface {
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
}

// LogsPublisherConfig holds configuration for CloudWatch Logs publishing.
type LogsPublisherConfig struct {
	LogGroupName    string // CloudWatch log group name
	LogStreamName   string // CloudWatch log stream name
	Region          string // AWS region
	Endpoint        string // Optional endpoint override (for LocalStack)
	AccessKeyID     string // AWS access key
	SecretAccessKey string // AWS secret key
	BufferSize      int    // Entries that trigger an early flush
	FlushInterval   time.Duration
	AutoCreate      bool // Create log group/stream if missing
}

func (c *LogsPublisherConfig) normalize() error {
	if c.LogGroupName == "" {
		return fmt.Errorf("log group name is required")
	}
	if c.LogStreamName == "" {
		return fmt.Errorf("log stream name is required")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 50
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 5 * time.Second
	}
	return nil
}

// LogsPublisher ships console log entries to AWS CloudWatch Logs.
// Publish never performs network I/O: it is called from inside the logger,
// so delivery happens on the background loop and failures are only counted.
type LogsPublisher struct {
	client        logsAPI
	logGroupName  string
	logStreamName string

	buffer     []port.LogEntry
	bufferSize int
	dropped    int
	mu         sync.Mutex

	flushInterval time.Duration
	flushCh       chan struct{}
	stopCh        chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

var _ port.LogPublisher = (*LogsPublisher)(nil)

// NewLogsPublisher creates a publisher backed by the AWS SDK client.
func NewLogsPublisher(ctx context.Context, cfg LogsPublisherConfig) (*LogsPublisher, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	awsCfg, err := buildAWSConfig(ctx, cfg.Region, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	p := newLogsPublisher(cloudwatchlogs.NewFromConfig(awsCfg), cfg)

	if cfg.AutoCreate {
		if err := p.ensureLogGroupAndStream(ctx); err != nil {
			return nil, fmt.Errorf("failed to create log group/stream: %w", err)
		}
	}

	p.start()
	return p, nil
}

func newLogsPublisher(client logsAPI, cfg LogsPublisherConfig) *LogsPublisher {
	return &LogsPublisher{
		client:        client,
		logGroupName:  cfg.LogGroupName,
		logStreamName: cfg.LogStreamName,
		buffer:        make([]port.LogEntry, 0, cfg.BufferSize),
		bufferSize:    cfg.BufferSize,
		flushInterval: cfg.FlushInterval,
		flushCh:       make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}
}

func (p *LogsPublisher) start() {
	p.wg.Add(1)
	go p.flushLoop()
}

// Publish buffers a single entry.
func (p *LogsPublisher) Publish(_ context.Context, entry port.LogEntry) error {
	p.enqueue(entry)
	return nil
}

// PublishBatch buffers multiple entries.
func (p *LogsPublisher) PublishBatch(_ context.Context, entries []port.LogEntry) error {
	p.enqueue(entries...)
	return nil
}

func (p *LogsPublisher) enqueue(entries ...port.LogEntry) {
	if len(entries) == 0 {
		return
	}

	p.mu.Lock()
	p.buffer = append(p.buffer, entries...)
	if over := len(p.buffer) - maxBufferedEntries; over > 0 {
		p.buffer = append(p.buffer[:0:0], p.buffer[over:]...)
		p.dropped += over
	}
	full := len(p.buffer) >= p.bufferSize
	p.mu.Unlock()

	if full {
		select {
		case p.flushCh <- struct{}{}:
		default:
		}
	}
}

// Dropped reports entries discarded because the buffer overflowed.
func (p *LogsPublisher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Flush forces immediate publication of all buffered entries.
func (p *LogsPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.flushBufferUnsafe(ctx)
}

// Close stops the background loop and flushes remaining entries.
func (p *LogsPublisher) Close(ctx context.Context) error {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()

	return p.Flush(ctx)
}

func (p *LogsPublisher) flushLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-p.flushCh:
		case <-p.stopCh:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		// failure keeps entries buffered for the next attempt
		_ = p.Flush(ctx)
		cancel()
	}
}

// flushBufferUnsafe flushes the buffer without locking (caller must hold lock).
func (p *LogsPublisher) flushBufferUnsafe(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}

	// CloudWatch Logs requires chronological order within a request
	sort.SliceStable(p.buffer, func(i, j int) bool {
		return p.buffer[i].Timestamp.Before(p.buffer[j].Timestamp)
	})

	for len(p.buffer) > 0 {
		end := len(p.buffer)
		if end > maxLogEventsPerRequest {
			end = maxLogEventsPerRequest
		}

		events := make([]types.InputLogEvent, 0, end)
		for _, entry := range p.buffer[:end] {
			event, err := convertToLogEvent(entry)
			if err != nil {
				continue
			}
			events = append(events, event)
		}

		if len(events) > 0 {
			if err := p.putWithRetry(ctx, events); err != nil {
				return fmt.Errorf("failed to publish chunk: %w", err)
			}
		}
		p.buffer = p.buffer[end:]
	}

	p.buffer = make([]port.LogEntry, 0, p.bufferSize)
	return nil
}

func (p *LogsPublisher) putWithRetry(ctx context.Context, events []types.InputLogEvent) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := p.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(p.logGroupName),
			LogStreamName: aws.String(p.logStreamName),
			LogEvents:     events,
		})
		if err == nil {
			return nil
		}
		lastErr = err

		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			if createErr := p.ensureLogGroupAndStream(ctx); createErr != nil {
				return createErr
			}
			continue
		}

		if attempt < maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// convertToLogEvent renders an entry as a JSON log line.
func convertToLogEvent(entry port.LogEntry) (types.InputLogEvent, error) {
	logData := map[string]interface{}{
		"timestamp": entry.Timestamp.Format(time.RFC3339Nano),
		"level":     entry.Level,
		"message":   entry.Message,
	}
	if len(entry.Fields) > 0 {
		logData["fields"] = entry.Fields
	}

	messageJSON, err := json.Marshal(logData)
	if err != nil {
		return types.InputLogEvent{}, fmt.Errorf("failed to marshal log entry: %w", err)
	}

	message := string(messageJSON)
	if len(message) > maxLogEventSize {
		message = message[:maxLogEventSize-3] + "..."
	}

	return types.InputLogEvent{
		Message:   aws.String(message),
		Timestamp: aws.Int64(entry.Timestamp.UnixMilli()),
	}, nil
}

// ensureLogGroupAndStream creates the log group and stream, ignoring "already exists".
func (p *LogsPublisher) ensureLogGroupAndStream(ctx context.Context) error {
	var alreadyExists *types.ResourceAlreadyExistsException

	_, err := p.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(p.logGroupName),
	})
	if err != nil && !errors.As(err, &alreadyExists) {
		return fmt.Errorf("failed to create log group: %w", err)
	}

	_, err = p.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(p.logGroupName),
		LogStreamName: aws.String(p.logStreamName),
	})
	if err != nil && !errors.As(err, &alreadyExists) {
		return fmt.Errorf("failed to create log stream: %w", err)
	}

	return nil
}

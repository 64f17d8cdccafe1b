// Copyright (c) 2026 - for information on the respective copyright owner
// see the NOTICE file and/or the repository at
// https://github.com/starkbridge/starkbridge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transaction

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/async"
	"github.com/starkbridge/starkbridge/blockchain"
	"github.com/starkbridge/starkbridge/blockchain/starknet"
	"github.com/starkbridge/starkbridge/felt"
	"github.com/starkbridge/starkbridge/log"
)

// ResTypeTransaction is the resource type used in ResourceNotFound errors.
const ResTypeTransaction starkbridge.ResourceType = "transaction"

// Definition of error constants for this package.
var (
	ErrNotConnected     = errors.New("connection is not established")
	ErrEmptyTransaction = errors.New("transaction has no calls")
	ErrNotFinished      = errors.New("transaction is still being tracked, cancel it first")

	errCancelled = errors.New("task cancelled")
)

// StateReader gives read access to the state of a connection.
type StateReader interface {
	CurrentState() starkbridge.ConnState
}

// Event is the result of a submit or a monitor task.
type Event struct {
	TrackingID string
	// Prepared is set by a submit task once the transaction is signed, also
	// when the broadcast fails.
	Prepared *starknet.SignedInvoke
	// Hash is set by a successful broadcast.
	Hash felt.Felt
	// Receipt is set by a successful monitor task.
	Receipt starkbridge.Receipt
}

// Update reports one status change of a record.
type Update struct {
	TrackingID string
	From       starkbridge.TxStatus
	Record     starkbridge.TransactionRecord
	// Err is set when the record became Rejected or Unknown.
	Err starkbridge.APIError
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock sets the source of timestamps for records.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// WithMetrics makes the executor count status changes and retries.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// entry is the foreground state of one record.
type entry struct {
	rec     starkbridge.TransactionRecord
	calls   []starkbridge.Call
	session *starkbridge.Session

	// signed is kept once a broadcast was attempted, so that retries send
	// the same transaction with the same nonce.
	signed     *starknet.SignedInvoke
	broadcasts int

	token    *async.Token
	running  bool
	released bool
}

// Executor submits transactions on an established connection and tracks
// their status until they are final. All methods are non blocking; network
// calls run in background tasks whose results are applied by PollPending.
type Executor struct {
	log.Logger

	bridge  *async.Bridge[Event]
	cfg     Config
	fees    starknet.FeePolicy
	now     func() time.Time
	metrics *Metrics

	sync.Mutex
	lastID  uint64
	order   []string
	entries map[string]*entry
	tasks   map[async.TaskID]string
	updates []Update
}

// New returns an executor that spawns its tasks on the bridge.
func New(bridge *async.Bridge[Event], cfg Config, opts ...Option) *Executor {
	e := &Executor{
		Logger:  log.NewLoggerWithField("component", "transaction"),
		bridge:  bridge,
		cfg:     cfg,
		fees:    starknet.FeePolicy{Multiplier: decimal.NewFromFloat(cfg.FeeMultiplier), Cap: cfg.MaxFee},
		now:     time.Now,
		entries: make(map[string]*entry),
		tasks:   make(map[async.TaskID]string),
	}
	if e.cfg.MaxAttempts < 1 {
		e.cfg.MaxAttempts = 1
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute starts submitting the calls as one transaction on the connection
// and returns the tracking ID of the new record. The connection must be
// Connected and there must be at least one call.
func (e *Executor) Execute(calls []starkbridge.Call, conn StateReader) (string, starkbridge.APIError) {
	e.WithField("method", "Execute").Info("Received request with number of calls:", len(calls))
	e.Lock()
	defer e.Unlock()

	var apiErr starkbridge.APIError
	state := conn.CurrentState()
	switch {
	case state.Phase != starkbridge.Connected || !state.Session.Acquire():
		apiErr = starkbridge.NewAPIErrNotConnected(ErrNotConnected)
	case len(calls) == 0:
		state.Session.Release()
		apiErr = starkbridge.NewAPIErrEmptyTransaction(ErrEmptyTransaction)
	}
	if apiErr != nil {
		e.WithFields(starkbridge.APIErrAsMap("Execute", apiErr)).Error(apiErr.Message())
		return "", apiErr
	}

	id := fmt.Sprintf("tx-%d", e.lastID+1)
	en := &entry{
		rec: starkbridge.TransactionRecord{
			TrackingID:  id,
			Status:      starkbridge.Submitted,
			SubmittedAt: e.now(),
		},
		calls:   append([]starkbridge.Call(nil), calls...),
		session: state.Session,
	}
	if err := e.spawnLocked(en, 0, e.submitTask(en)); err != nil {
		state.Session.Release()
		apiErr = starkbridge.NewAPIErrBridgeUnavailable(err)
		e.WithFields(starkbridge.APIErrAsMap("Execute", apiErr)).Error(apiErr.Message())
		return "", apiErr
	}
	e.lastID++
	e.entries[id] = en
	e.order = append(e.order, id)
	e.WithFields(log.Fields{"method": "Execute", "trackingID": id}).Info("Transaction submitted")
	return id, nil
}

func (e *Executor) spawnLocked(en *entry, delay time.Duration, task async.Task[Event]) error {
	taskID, tok, err := e.bridge.SpawnAfter(delay, task)
	if err != nil {
		return err
	}
	e.tasks[taskID] = en.rec.TrackingID
	en.token, en.running = tok, true
	return nil
}

// submitTask prepares, signs and broadcasts the transaction. The token is
// checked before each network call.
func (e *Executor) submitTask(en *entry) async.Task[Event] {
	id, calls := en.rec.TrackingID, en.calls
	account := starknet.NewAccount(en.session, e.fees)
	timeout := e.cfg.RequestTimeout

	return func(tok *async.Token) (Event, error) {
		ev := Event{TrackingID: id}
		ctx, cancel := withTimeout(timeout)
		defer cancel()

		if tok.Cancelled() {
			return ev, errCancelled
		}
		nonce, err := account.Nonce(ctx)
		if err != nil {
			return ev, err
		}
		if tok.Cancelled() {
			return ev, errCancelled
		}
		bounds, err := account.EstimateBounds(ctx, calls, nonce)
		if err != nil {
			return ev, err
		}
		signed, err := account.SignInvoke(calls, nonce, bounds)
		if err != nil {
			return ev, err
		}
		if tok.Cancelled() {
			return ev, errCancelled
		}
		ev.Prepared = &signed
		ev.Hash, err = account.Broadcast(ctx, signed.Tx)
		return ev, err
	}
}

// broadcastTask sends the already signed transaction again.
func (e *Executor) broadcastTask(en *entry) async.Task[Event] {
	id, signed := en.rec.TrackingID, *en.signed
	account := starknet.NewAccount(en.session, e.fees)
	timeout := e.cfg.RequestTimeout

	return func(tok *async.Token) (Event, error) {
		ev := Event{TrackingID: id, Prepared: &signed}
		if tok.Cancelled() {
			return ev, errCancelled
		}
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		var err error
		ev.Hash, err = account.Broadcast(ctx, signed.Tx)
		return ev, err
	}
}

// monitorTask makes one status query for the transaction.
func (e *Executor) monitorTask(en *entry) async.Task[Event] {
	id, hash, client := en.rec.TrackingID, *en.rec.Hash, en.session.Client
	timeout := e.cfg.RequestTimeout

	return func(tok *async.Token) (Event, error) {
		ev := Event{TrackingID: id}
		if tok.Cancelled() {
			return ev, errCancelled
		}
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		var err error
		ev.Receipt, err = client.TransactionReceipt(ctx, hash)
		return ev, err
	}
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}

// PollPending applies the results of all tasks that completed since the
// previous call and returns the resulting status changes, in completion
// order.
func (e *Executor) PollPending() []Update {
	e.Lock()
	defer e.Unlock()

	for _, c := range e.bridge.PollCompleted() {
		id, ok := e.tasks[c.ID]
		delete(e.tasks, c.ID)
		en := e.entries[id]
		if !ok || en == nil {
			continue
		}
		en.running, en.token = false, nil

		if en.rec.MonitoringStopped {
			fields := log.Fields{"method": "PollPending", "trackingID": id}
			if en.rec.Hash == nil && c.Err == nil {
				// Broadcast succeeded after the record was cancelled.
				fields["hash"] = c.Value.Hash.String()
			}
			e.WithFields(fields).Info("Discarded result for cancelled transaction")
			e.releaseLocked(en)
			continue
		}

		switch {
		case errors.Is(c.Err, async.ErrUnavailable):
			e.finishLocked(en, starkbridge.Unknown, starkbridge.NewAPIErrTxUnknown(c.Err, id, en.rec.RetryCount))
		case en.rec.Hash == nil:
			e.applySubmitLocked(en, c)
		default:
			e.applyMonitorLocked(en, c)
		}
	}
	updates := e.updates
	e.updates = nil
	return updates
}

// applySubmitLocked handles the result of a submit or broadcast task. Once a
// broadcast was attempted, the signed transaction is only ever broadcast
// again: the node may have accepted it even though the response was lost.
func (e *Executor) applySubmitLocked(en *entry, c async.Completion[Event]) {
	id := en.rec.TrackingID
	if c.Value.Prepared != nil {
		en.signed = c.Value.Prepared
	}
	if c.Err != nil {
		if en.broadcasts > 0 && alreadySent(c.Err) {
			e.WithError(c.Err).WithFields(log.Fields{"trackingID": id, "hash": en.signed.Hash.String()}).
				Info("Transaction was sent by an earlier broadcast")
			e.acceptBroadcastLocked(en, en.signed.Hash)
			return
		}
		if reason, ok := blockchain.RejectionReason(c.Err); ok {
			en.rec.RejectReason = reason
			e.finishLocked(en, starkbridge.Rejected, starkbridge.NewAPIErrTxRejected(id, reason))
			return
		}
		if en.signed == nil {
			e.retryLocked(en, c.Err, e.submitTask(en))
			return
		}
		en.broadcasts++
		e.retryLocked(en, c.Err, e.broadcastTask(en))
		return
	}

	hash := c.Value.Hash
	if !hash.Equal(en.signed.Hash) {
		e.WithFields(log.Fields{"trackingID": id, "node": hash.String(), "local": en.signed.Hash.String()}).
			Warn("Node reported a different transaction hash")
	}
	e.acceptBroadcastLocked(en, hash)
}

// acceptBroadcastLocked records the hash of the sent transaction and starts
// monitoring it.
func (e *Executor) acceptBroadcastLocked(en *entry, hash felt.Felt) {
	en.rec.Hash = &hash
	en.rec.MaxFee = en.signed.Tx.ResourceBounds.MaxFee()
	e.WithFields(log.Fields{"method": "PollPending", "trackingID": en.rec.TrackingID, "hash": hash.String()}).
		Info("Transaction broadcast")
	e.advanceLocked(en, starkbridge.Pending, nil)
	e.scheduleMonitorLocked(en, e.cfg.PollInterval)
}

// alreadySent reports whether the node rejected a broadcast because the
// transaction, or another one with its nonce, is already known.
func alreadySent(err error) bool {
	code, ok := blockchain.RejectionCode(err)
	return ok && (code == starknet.CodeDuplicateTx || code == starknet.CodeInvalidTxNonce)
}

func (e *Executor) applyMonitorLocked(en *entry, c async.Completion[Event]) {
	en.rec.LastPolledAt = e.now()
	if c.Err != nil {
		e.retryLocked(en, c.Err, e.monitorTask(en))
		return
	}

	id := en.rec.TrackingID
	r := c.Value.Receipt
	next := en.rec.Status
	var apiErr starkbridge.APIError
	switch {
	case r.FinalityStatus == starkbridge.FinalityRejected:
		en.rec.RejectReason = nonEmpty(r.RevertReason, "rejected by the sequencer")
		next = starkbridge.Rejected
		apiErr = starkbridge.NewAPIErrTxRejected(id, en.rec.RejectReason)
	case r.ExecutionStatus == starkbridge.ExecutionReverted:
		en.rec.RejectReason = nonEmpty(r.RevertReason, "execution reverted")
		next = starkbridge.Rejected
		apiErr = starkbridge.NewAPIErrTxRejected(id, en.rec.RejectReason)
	case r.FinalityStatus == starkbridge.FinalityReceived:
		next = starkbridge.Pending
	case r.FinalityStatus == starkbridge.FinalityAcceptedOnL2:
		next = starkbridge.AcceptedOnL2
	case r.FinalityStatus == starkbridge.FinalityAcceptedOnL1:
		next = starkbridge.AcceptedOnL1
	default:
		e.WithFields(log.Fields{"trackingID": id, "finality": r.FinalityStatus}).Warn("Unknown finality status")
	}

	e.advanceLocked(en, next, apiErr)
	if en.rec.Status.Terminal() {
		e.releaseLocked(en)
		return
	}
	e.scheduleMonitorLocked(en, e.cfg.PollInterval)
}

// retryLocked counts a transient failure and reschedules the task after the
// backoff delay, or gives the record up as Unknown once the attempt budget
// is used up.
func (e *Executor) retryLocked(en *entry, cause error, task async.Task[Event]) {
	id := en.rec.TrackingID
	en.rec.RetryCount++
	if en.rec.RetryCount >= e.cfg.MaxAttempts {
		e.finishLocked(en, starkbridge.Unknown, starkbridge.NewAPIErrTxUnknown(cause, id, en.rec.RetryCount))
		return
	}

	delay := e.cfg.Backoff.Delay(en.rec.RetryCount)
	if err := e.spawnLocked(en, delay, task); err != nil {
		e.finishLocked(en, starkbridge.Unknown, starkbridge.NewAPIErrTxUnknown(err, id, en.rec.RetryCount))
		return
	}
	if e.metrics != nil {
		e.metrics.retries.Inc()
	}
	e.WithError(cause).WithFields(log.Fields{"trackingID": id, "retry": en.rec.RetryCount, "delay": delay}).
		Debug("Retrying after transient failure")
}

func (e *Executor) scheduleMonitorLocked(en *entry, delay time.Duration) {
	if err := e.spawnLocked(en, delay, e.monitorTask(en)); err != nil {
		// Only reachable after the runtime was shut down.
		e.WithError(err).WithField("trackingID", en.rec.TrackingID).Warn("Cannot schedule status poll")
		e.finishLocked(en, starkbridge.Unknown,
			starkbridge.NewAPIErrTxUnknown(err, en.rec.TrackingID, en.rec.RetryCount))
	}
}

// finishLocked moves the record into a terminal status and releases its
// session.
func (e *Executor) finishLocked(en *entry, status starkbridge.TxStatus, apiErr starkbridge.APIError) {
	e.advanceLocked(en, status, apiErr)
	e.releaseLocked(en)
}

// advanceLocked applies a status change, if it respects monotonicity, and
// queues the update reported by PollPending.
func (e *Executor) advanceLocked(en *entry, next starkbridge.TxStatus, apiErr starkbridge.APIError) {
	from := en.rec.Status
	if !from.Advances(next) {
		return
	}
	en.rec.Status = next
	if e.metrics != nil {
		e.metrics.statusChanges.WithLabelValues(next.String()).Inc()
	}

	fields := log.Fields{"trackingID": en.rec.TrackingID, "from": from, "to": next}
	if en.rec.Hash != nil {
		fields["hash"] = en.rec.Hash.String()
	}
	if apiErr != nil {
		e.WithFields(fields).WithFields(starkbridge.APIErrAsMap("PollPending", apiErr)).Error(apiErr.Message())
	} else {
		e.WithFields(fields).Info("Status changed")
	}
	e.updates = append(e.updates, Update{
		TrackingID: en.rec.TrackingID,
		From:       from,
		Record:     snapshot(en.rec),
		Err:        apiErr,
	})
}

func (e *Executor) releaseLocked(en *entry) {
	if en.released {
		return
	}
	en.released = true
	en.session.Release()
}

// Cancel stops tracking the transaction. The status stays at the last
// observed value and the record is flagged MonitoringStopped. A task that is
// running or waiting for its backoff observes the flag before its next
// network call; its result is discarded. Cancelling a finished record only
// sets the flag.
func (e *Executor) Cancel(trackingID string) starkbridge.APIError {
	e.WithField("method", "Cancel").Info("Received request with params:", trackingID)
	e.Lock()
	defer e.Unlock()

	en, ok := e.entries[trackingID]
	if !ok {
		apiErr := starkbridge.NewAPIErrResourceNotFound(ResTypeTransaction, trackingID)
		e.WithFields(starkbridge.APIErrAsMap("Cancel", apiErr)).Error(apiErr.Message())
		return apiErr
	}
	en.rec.MonitoringStopped = true
	if en.token != nil {
		en.token.Cancel()
	}
	if !en.running {
		e.releaseLocked(en)
	}
	e.WithFields(log.Fields{"method": "Cancel", "trackingID": trackingID, "status": en.rec.Status}).
		Info("Monitoring stopped")
	return nil
}

// StatusOf returns a snapshot of the record.
func (e *Executor) StatusOf(trackingID string) (starkbridge.TransactionRecord, starkbridge.APIError) {
	e.Lock()
	defer e.Unlock()

	en, ok := e.entries[trackingID]
	if !ok {
		return starkbridge.TransactionRecord{}, starkbridge.NewAPIErrResourceNotFound(ResTypeTransaction, trackingID)
	}
	return snapshot(en.rec), nil
}

// Records returns snapshots of all records in the order they were created.
func (e *Executor) Records() []starkbridge.TransactionRecord {
	e.Lock()
	defer e.Unlock()

	out := make([]starkbridge.TransactionRecord, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, snapshot(e.entries[id].rec))
	}
	return out
}

// PendingCount returns the number of records that are still being tracked.
func (e *Executor) PendingCount() int {
	e.Lock()
	defer e.Unlock()

	n := 0
	for _, en := range e.entries {
		if !en.rec.Status.Terminal() && !en.rec.MonitoringStopped {
			n++
		}
	}
	return n
}

// Discard removes a record that is no longer tracked: it must be in a
// terminal status or cancelled, with no task still running for it.
func (e *Executor) Discard(trackingID string) starkbridge.APIError {
	e.WithField("method", "Discard").Info("Received request with params:", trackingID)
	e.Lock()
	defer e.Unlock()

	var apiErr starkbridge.APIError
	en, ok := e.entries[trackingID]
	switch {
	case !ok:
		apiErr = starkbridge.NewAPIErrResourceNotFound(ResTypeTransaction, trackingID)
	case en.running || !(en.rec.Status.Terminal() || en.rec.MonitoringStopped):
		apiErr = starkbridge.NewAPIErrFailedPreCondition(ErrNotFinished)
	}
	if apiErr != nil {
		e.WithFields(starkbridge.APIErrAsMap("Discard", apiErr)).Error(apiErr.Message())
		return apiErr
	}

	delete(e.entries, trackingID)
	for i, id := range e.order {
		if id == trackingID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.WithField("method", "Discard").Info("Record discarded")
	return nil
}

func snapshot(rec starkbridge.TransactionRecord) starkbridge.TransactionRecord {
	if rec.Hash != nil {
		h := *rec.Hash
		rec.Hash = &h
	}
	if rec.MaxFee != nil {
		rec.MaxFee = new(big.Int).Set(rec.MaxFee)
	}
	return rec
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"promise_backend/internal/servicerequests/domain"
	"promise_backend/platform/apperr"
	"promise_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Repository ────────────────────────────────────────────────────────────────

const (
	requestNotFoundMsg = "service request not found"

	ticketConstraint    = "service_requests_ticket_number_key"
	ticketAttempts      = 5
	jobNumberLockKey    = "job_tickets.number"
	jobConvertedMessage = "Job ticket %s has been created."

	sequenceSuffixPattern = `-([0-9]+)$`

	requestColumns = `id, ticket_number, customer_id, brand, screen_size, model_number,
		primary_issue, description, customer_name, phone, address, service_preference,
		status, tracking_status, request_intent, service_mode, stage, converted_job_id,
		expected_pickup_date, expected_return_date, expected_ready_date, created_at, updated_at,
		quote_status, quote_amount, quote_notes, quoted_at, quote_expires_at, accepted_at,
		pickup_tier, pickup_cost, total_amount, scheduled_visit_date`

	jobColumns = `id, service_request_id, customer, customer_phone, customer_address, device,
		tv_serial_number, issue, status, priority, technician, screen_size, notes, created_at`

	eventColumns = `id, service_request_id, status, COALESCE(message, ''), actor, actor_id,
		from_stage, to_stage, occurred_at`
)

// Repository provides database operations for service requests
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New creates a new service request repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

// Create inserts a request and its first timeline event. The ticket number
// SRV-YYYYMMDD-NNNN continues today's sequence; on a collision the next
// number is tried, up to five times.
func (r *Repository) Create(ctx context.Context, req *ServiceRequest, initial TimelineEvent) error {
	today := r.now().UTC()
	prefix := "SRV-" + today.Format("20060102") + "-"

	var base int
	if err := r.pool.QueryRow(ctx, lastSequenceQuery("service_requests", "ticket_number"), prefix+"%").Scan(&base); err != nil {
		return fmt.Errorf("failed to read ticket sequence: %w", err)
	}

	for attempt := 0; attempt < ticketAttempts; attempt++ {
		req.TicketNumber = formatSequence(prefix, base+1+attempt)

		err := r.insertWithEvent(ctx, req, initial)
		if err == nil {
			return nil
		}
		if db.IsUniqueViolation(err, ticketConstraint) {
			continue
		}
		return err
	}

	return apperr.Conflict("could not allocate a unique ticket number").WithOp("create service request")
}

func (r *Repository) insertWithEvent(ctx context.Context, req *ServiceRequest, initial TimelineEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO service_requests (
			id, ticket_number, customer_id, brand, screen_size, model_number,
			primary_issue, description, customer_name, phone, address, service_preference,
			status, tracking_status, request_intent, service_mode, stage
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`

	if err := tx.QueryRow(ctx, query,
		req.ID, req.TicketNumber, req.CustomerID, req.Brand, req.ScreenSize, req.ModelNumber,
		req.PrimaryIssue, req.Description, req.CustomerName, req.Phone, req.Address, req.ServicePreference,
		req.Status, req.TrackingStatus, req.RequestIntent, req.ServiceMode, req.Stage,
	).Scan(&req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert service request: %w", err)
	}

	initial.ServiceRequestID = req.ID
	if _, err := insertEvent(ctx, tx, initial); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID returns a service request by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*ServiceRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id = $1`, id)
	sr, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(requestNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}
	return &sr, nil
}

// GetByTicketNumber returns a service request by its public ticket number
func (r *Repository) GetByTicketNumber(ctx context.Context, ticketNumber string) (*ServiceRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE ticket_number = $1`, ticketNumber)
	sr, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(requestNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get service request by ticket: %w", err)
	}
	return &sr, nil
}

// List returns a filtered, paginated page of service requests
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	sortBy, err := resolveSortBy(params.SortBy)
	if err != nil {
		return nil, err
	}
	sortOrder, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return nil, err
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}

	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	var customerParam interface{}
	if params.CustomerID != nil {
		customerParam = *params.CustomerID
	}

	var stageParam interface{}
	if params.Stage != nil {
		stageParam = *params.Stage
	}

	var trackingParam interface{}
	if params.TrackingStatus != nil {
		trackingParam = *params.TrackingStatus
	}

	baseQuery := `
		FROM service_requests
		WHERE ($1::uuid IS NULL OR customer_id = $1)
			AND ($2::text IS NULL OR stage = $2)
			AND ($3::text IS NULL OR tracking_status = $3)
			AND ($4::text IS NULL OR ticket_number ILIKE $4 OR customer_name ILIKE $4 OR phone ILIKE $4 OR brand ILIKE $4)
	`
	args := []interface{}{customerParam, stageParam, trackingParam, searchParam}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count service requests: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	selectQuery := `SELECT ` + requestColumns + baseQuery + `
		ORDER BY
			CASE WHEN $5 = 'ticketNumber' AND $6 = 'asc' THEN ticket_number END ASC,
			CASE WHEN $5 = 'ticketNumber' AND $6 = 'desc' THEN ticket_number END DESC,
			CASE WHEN $5 = 'stage' AND $6 = 'asc' THEN stage END ASC,
			CASE WHEN $5 = 'stage' AND $6 = 'desc' THEN stage END DESC,
			CASE WHEN $5 = 'createdAt' AND $6 = 'asc' THEN created_at END ASC,
			CASE WHEN $5 = 'createdAt' AND $6 = 'desc' THEN created_at END DESC,
			CASE WHEN $5 = 'updatedAt' AND $6 = 'asc' THEN updated_at END ASC,
			CASE WHEN $5 = 'updatedAt' AND $6 = 'desc' THEN updated_at END DESC,
			created_at DESC
		LIMIT $7 OFFSET $8`

	args = append(args, sortBy, sortOrder, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}
	defer rows.Close()

	items := make([]ServiceRequest, 0)
	for rows.Next() {
		sr, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		items = append(items, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service requests: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// ListTimeline returns a request's events oldest first
func (r *Repository) ListTimeline(ctx context.Context, serviceRequestID uuid.UUID) ([]TimelineEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM service_request_events
		WHERE service_request_id = $1
		ORDER BY occurred_at ASC, id ASC`, serviceRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	defer rows.Close()

	events := make([]TimelineEvent, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeline event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ApplyTransition locks the request row, asks decide for a plan, then
// writes the new stage, an optional job ticket and exactly one timeline
// event in the same transaction.
func (r *Repository) ApplyTransition(ctx context.Context, id uuid.UUID, actor Actor, decide DecideFunc) (*TransitionResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	plan, err := decide(current)
	if err != nil {
		return nil, err
	}

	message := plan.Message
	var job *JobTicket
	if plan.CreateJobTicket {
		job, err = r.createJobTicket(ctx, tx, current)
		if err != nil {
			return nil, err
		}
		message += " " + fmt.Sprintf(jobConvertedMessage, job.ID)
	}

	var jobID *string
	if job != nil {
		jobID = &job.ID
	}

	updated, err := scanRequest(tx.QueryRow(ctx, `
		UPDATE service_requests
		SET stage = $2,
			converted_job_id = COALESCE($3::text, converted_job_id),
			status = CASE WHEN $3::text IS NULL THEN status ELSE 'Converted' END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumns, id, string(plan.To), jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to update stage: %w", err)
	}

	from := string(plan.From)
	to := string(plan.To)
	event, err := insertEvent(ctx, tx, TimelineEvent{
		ServiceRequestID: id,
		Status:           plan.TrackingStatus,
		Message:          message,
		Actor:            actor.Name,
		ActorID:          actor.ID,
		FromStage:        &from,
		ToStage:          &to,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	return &TransitionResult{Request: updated, Event: event, JobTicket: job, Plan: plan}, nil
}

func (r *Repository) createJobTicket(ctx context.Context, tx pgx.Tx, sr ServiceRequest) (*JobTicket, error) {
	// Job numbers are allocated per year from the highest existing one, so
	// allocation is serialized across transactions.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, jobNumberLockKey); err != nil {
		return nil, fmt.Errorf("failed to lock job sequence: %w", err)
	}

	prefix := fmt.Sprintf("JOB-%d-", r.now().UTC().Year())
	var last int
	if err := tx.QueryRow(ctx, lastSequenceQuery("job_tickets", "id"), prefix+"%").Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to read job sequence: %w", err)
	}

	srID := sr.ID
	job := &JobTicket{
		ID:               formatSequence(prefix, last+1),
		ServiceRequestID: &srID,
		Customer:         sr.CustomerName,
		CustomerPhone:    &sr.Phone,
		CustomerAddress:  sr.Address,
		Device:           strings.TrimSpace(sr.Brand + " TV"),
		TVSerialNumber:   sr.ModelNumber,
		Issue:            sr.PrimaryIssue,
		Status:           "In Progress",
		Priority:         "Medium",
		Technician:       domain.UnassignedTechnician,
		ScreenSize:       sr.ScreenSize,
		Notes:            sr.Description,
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO job_tickets (
			id, service_request_id, customer, customer_phone, customer_address, device,
			tv_serial_number, issue, status, priority, technician, screen_size, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`,
		job.ID, job.ServiceRequestID, job.Customer, job.CustomerPhone, job.CustomerAddress, job.Device,
		job.TVSerialNumber, job.Issue, job.Status, job.Priority, job.Technician, job.ScreenSize, job.Notes,
	).Scan(&job.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert job ticket: %w", err)
	}

	return job, nil
}

// UpdateTrackingStatus sets the legacy tracking status and records the
// change on the timeline in one transaction. guard runs against the locked
// row and may veto the change.
func (r *Repository) UpdateTrackingStatus(ctx context.Context, id uuid.UUID, status string, event TimelineEvent, guard TrackingGuard) (*ServiceRequest, *TimelineEvent, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockRequest(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}

	if guard != nil {
		job, err := linkedJobTicket(ctx, tx, current)
		if err != nil {
			return nil, nil, err
		}
		if err := guard(current, job); err != nil {
			return nil, nil, err
		}
	}

	updated, err := scanRequest(tx.QueryRow(ctx, `
		UPDATE service_requests
		SET tracking_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumns, id, status))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update tracking status: %w", err)
	}

	event.ServiceRequestID = id
	stored, err := insertEvent(ctx, tx, event)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit tracking status: %w", err)
	}
	return &updated, &stored, nil
}

// UpdateStatus sets the internal admin status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*ServiceRequest, error) {
	updated, err := scanRequest(r.pool.QueryRow(ctx, `
		UPDATE service_requests
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumns, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(requestNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	return &updated, nil
}

// AssignTechnician names the technician on the request's job ticket.
func (r *Repository) AssignTechnician(ctx context.Context, id uuid.UUID, technician string) (*JobTicket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current.ConvertedJobID == nil || *current.ConvertedJobID == "" {
		return nil, apperr.Conflict("service request has no job ticket").WithOp("assign technician")
	}

	job, err := scanJobTicket(tx.QueryRow(ctx, `
		UPDATE job_tickets
		SET technician = $2
		WHERE id = $1
		RETURNING `+jobColumns, *current.ConvertedJobID, technician))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("job ticket not found")
		}
		return nil, fmt.Errorf("failed to assign technician: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit technician: %w", err)
	}
	return &job, nil
}

// UpdateQuote locks the request row, asks decide for a change, then writes
// the quote fields and the optional timeline event in one transaction.
func (r *Repository) UpdateQuote(ctx context.Context, id uuid.UUID, decide QuoteDecideFunc) (*ServiceRequest, *TimelineEvent, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockRequest(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}

	change, err := decide(current)
	if err != nil {
		return nil, nil, err
	}

	var stage *string
	if change.Event != nil && change.Event.ToStage != nil && *change.Event.ToStage != "" {
		stage = change.Event.ToStage
	}

	updated, err := scanRequest(tx.QueryRow(ctx, `
		UPDATE service_requests
		SET quote_status = COALESCE($2, quote_status),
			quote_amount = COALESCE($3, quote_amount),
			quote_notes = CASE WHEN $4::boolean THEN $5::text ELSE quote_notes END,
			quoted_at = COALESCE($6, quoted_at),
			quote_expires_at = COALESCE($7, quote_expires_at),
			accepted_at = COALESCE($8, accepted_at),
			pickup_tier = COALESCE($9, pickup_tier),
			pickup_cost = COALESCE($10, pickup_cost),
			total_amount = COALESCE($11, total_amount),
			scheduled_visit_date = COALESCE($12, scheduled_visit_date),
			service_preference = COALESCE($13, service_preference),
			address = COALESCE($14, address),
			tracking_status = COALESCE($15, tracking_status),
			status = COALESCE($16, status),
			stage = COALESCE($17, stage),
			updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumns,
		id, change.QuoteStatus, change.QuoteAmount, change.SetNotes, change.QuoteNotes,
		change.QuotedAt, change.QuoteExpiresAt, change.AcceptedAt,
		change.PickupTier, change.PickupCost, change.TotalAmount, change.ScheduledVisitDate,
		change.ServicePreference, change.Address, change.TrackingStatus, change.Status, stage,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update quote: %w", err)
	}

	var stored *TimelineEvent
	if change.Event != nil {
		ev := *change.Event
		ev.ServiceRequestID = id
		saved, err := insertEvent(ctx, tx, ev)
		if err != nil {
			return nil, nil, err
		}
		stored = &saved
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit quote: %w", err)
	}
	return &updated, stored, nil
}

func lockRequest(ctx context.Context, tx pgx.Tx, id uuid.UUID) (ServiceRequest, error) {
	current, err := scanRequest(tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM service_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ServiceRequest{}, apperr.NotFound(requestNotFoundMsg)
		}
		return ServiceRequest{}, fmt.Errorf("failed to lock service request: %w", err)
	}
	return current, nil
}

// linkedJobTicket loads the job ticket a converted request points at, or
// nil when there is none.
func linkedJobTicket(ctx context.Context, tx pgx.Tx, sr ServiceRequest) (*JobTicket, error) {
	if sr.ConvertedJobID == nil || *sr.ConvertedJobID == "" {
		return nil, nil
	}
	job, err := scanJobTicket(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_tickets WHERE id = $1`, *sr.ConvertedJobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load job ticket: %w", err)
	}
	return &job, nil
}

// UpdateExpectedDates replaces the customer-visible schedule estimates.
func (r *Repository) UpdateExpectedDates(ctx context.Context, id uuid.UUID, dates ExpectedDates) (*ServiceRequest, error) {
	updated, err := scanRequest(r.pool.QueryRow(ctx, `
		UPDATE service_requests
		SET expected_pickup_date = $2, expected_return_date = $3, expected_ready_date = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumns, id, dates.Pickup, dates.Return, dates.Ready))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(requestNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to update expected dates: %w", err)
	}
	return &updated, nil
}

func insertEvent(ctx context.Context, tx pgx.Tx, ev TimelineEvent) (TimelineEvent, error) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO service_request_events (
			id, service_request_id, status, message, actor, actor_id, from_stage, to_stage
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING occurred_at`,
		ev.ID, ev.ServiceRequestID, ev.Status, ev.Message, ev.Actor, ev.ActorID, ev.FromStage, ev.ToStage,
	).Scan(&ev.OccurredAt)
	if err != nil {
		return TimelineEvent{}, fmt.Errorf("failed to insert timeline event: %w", err)
	}
	return ev, nil
}

func scanRequest(row pgx.Row) (ServiceRequest, error) {
	var sr ServiceRequest
	err := row.Scan(
		&sr.ID, &sr.TicketNumber, &sr.CustomerID, &sr.Brand, &sr.ScreenSize, &sr.ModelNumber,
		&sr.PrimaryIssue, &sr.Description, &sr.CustomerName, &sr.Phone, &sr.Address, &sr.ServicePreference,
		&sr.Status, &sr.TrackingStatus, &sr.RequestIntent, &sr.ServiceMode, &sr.Stage, &sr.ConvertedJobID,
		&sr.ExpectedPickupDate, &sr.ExpectedReturnDate, &sr.ExpectedReadyDate, &sr.CreatedAt, &sr.UpdatedAt,
		&sr.QuoteStatus, &sr.QuoteAmount, &sr.QuoteNotes, &sr.QuotedAt, &sr.QuoteExpiresAt, &sr.AcceptedAt,
		&sr.PickupTier, &sr.PickupCost, &sr.TotalAmount, &sr.ScheduledVisitDate,
	)
	return sr, err
}

func scanJobTicket(row pgx.Row) (JobTicket, error) {
	var j JobTicket
	err := row.Scan(
		&j.ID, &j.ServiceRequestID, &j.Customer, &j.CustomerPhone, &j.CustomerAddress, &j.Device,
		&j.TVSerialNumber, &j.Issue, &j.Status, &j.Priority, &j.Technician, &j.ScreenSize, &j.Notes, &j.CreatedAt,
	)
	return j, err
}

func scanEvent(row pgx.Row) (TimelineEvent, error) {
	var ev TimelineEvent
	err := row.Scan(
		&ev.ID, &ev.ServiceRequestID, &ev.Status, &ev.Message, &ev.Actor, &ev.ActorID,
		&ev.FromStage, &ev.ToStage, &ev.OccurredAt,
	)
	return ev, err
}

// lastSequenceQuery selects the highest numeric suffix among identifiers
// matching $1 (a LIKE pattern), or 0. The suffix is compared as a number:
// as text "-9999" sorts above "-10000". Suffixes that are not all digits
// are ignored.
func lastSequenceQuery(table, column string) string {
	return `SELECT COALESCE(MAX(substring(` + column + ` FROM '` + sequenceSuffixPattern + `')::bigint), 0)::int
		FROM ` + table + `
		WHERE ` + column + ` LIKE $1`
}

// formatSequence pads to four digits; larger numbers keep all their digits.
func formatSequence(prefix string, n int) string {
	return fmt.Sprintf("%s%04d", prefix, n)
}

func resolveSortBy(sortBy string) (string, error) {
	if sortBy == "" {
		return "createdAt", nil
	}
	switch sortBy {
	case "ticketNumber", "stage", "createdAt", "updatedAt":
		return sortBy, nil
	default:
		return "", apperr.BadRequest("invalid sort field")
	}
}

func resolveSortOrder(sortOrder string) (string, error) {
	if sortOrder == "" {
		return "desc", nil
	}
	switch sortOrder {
	case "asc", "desc":
		return sortOrder, nil
	default:
		return "", apperr.BadRequest("invalid sort order")
	}
}

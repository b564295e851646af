package testserver

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/ticketdesk/internal/domain/listing"
	"github.com/rpggio/ticketdesk/internal/domain/notification"
	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
	"github.com/rpggio/ticketdesk/internal/transport"
)

const (
	statusOpen int64 = iota + 1
	statusInProgress
	statusResolved
	statusClosed
)

func (ts *TestServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form session.LoginForm
	if !decodeBody(w, r, &form) {
		return
	}

	ts.mu.Lock()
	acc := ts.accounts[form.Username]
	ts.mu.Unlock()
	if acc == nil || acc.password != form.Password {
		writeBusinessError(w, "AUTH_FAILED", "invalid username or password")
		return
	}

	ttl := 24 * time.Hour
	if form.Remember {
		ttl = 30 * 24 * time.Hour
	}
	user := acc.user
	writeData(w, http.StatusOK, session.LoginResult{
		Token: ts.IssueToken(form.Username, ttl),
		User:  &user,
	})
}

func (ts *TestServer) handleMe(w http.ResponseWriter, r *http.Request) {
	acc := ts.currentAccount(r)
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user", nil)
		return
	}
	user := acc.user
	writeData(w, http.StatusOK, session.Profile{
		User:        &user,
		Permissions: append([]string{}, acc.permissions...),
	})
}

func (ts *TestServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := transport.BearerToken(r)
	ts.mu.Lock()
	ts.revoked[token] = true
	ts.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}

func (ts *TestServer) handleListTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	statusID := queryInt64(r, "statusId")
	priorityID := queryInt64(r, "priorityId")
	typeID := queryInt64(r, "typeId")
	departmentID := queryInt64(r, "departmentId")
	reporterID := queryInt64(r, "reporterId")
	tags := q["tags"]

	ts.mu.Lock()
	var matched []ticket.Ticket
	for _, t := range ts.tickets {
		if search != "" && !strings.Contains(strings.ToLower(t.Title+" "+t.Description), search) {
			continue
		}
		if statusID > 0 && t.StatusID != statusID {
			continue
		}
		if priorityID > 0 && t.PriorityID != priorityID {
			continue
		}
		if typeID > 0 && t.TypeID != typeID {
			continue
		}
		if departmentID > 0 && t.DepartmentID != departmentID {
			continue
		}
		if reporterID > 0 && t.ReporterID != reporterID {
			continue
		}
		if !hasTags(t.Tags, tags) {
			continue
		}
		matched = append(matched, t)
	}
	ts.mu.Unlock()

	sortTickets(matched, q.Get("sortBy"), q.Get("sortOrder"))

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)
	items, totalPages := paginate(matched, page, pageSize)
	writeData(w, http.StatusOK, listing.Page[ticket.Ticket]{
		Items:      items,
		Total:      len(matched),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func hasTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortTickets(items []ticket.Ticket, sortBy, order string) {
	desc := order != "asc"
	less := func(a, b ticket.Ticket) bool { return a.ID < b.ID }
	switch sortBy {
	case "priority", "priorityId":
		less = func(a, b ticket.Ticket) bool {
			if a.PriorityID == b.PriorityID {
				return a.ID < b.ID
			}
			return a.PriorityID < b.PriorityID
		}
	case "title":
		less = func(a, b ticket.Ticket) bool { return a.Title < b.Title }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func (ts *TestServer) insertTicketLocked(t ticket.Ticket) ticket.Ticket {
	now := time.Now().UTC()
	t.ID = ts.newIDLocked()
	if t.StatusID == 0 {
		t.StatusID = statusOpen
	}
	t.CreatedAt, t.UpdatedAt = now, now
	ts.tickets = append(ts.tickets, t)
	ts.history[t.ID] = append(ts.history[t.ID], ticket.HistoryEntry{
		ID:          ts.newIDLocked(),
		TicketID:    t.ID,
		Action:      "created",
		Description: "ticket created",
		UserID:      t.ReporterID,
		CreatedAt:   now,
	})
	return t
}

func (ts *TestServer) findTicketLocked(id int64) int {
	for i := range ts.tickets {
		if ts.tickets[i].ID == id {
			return i
		}
	}
	return -1
}

func (ts *TestServer) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var form ticket.CreateForm
	if !decodeBody(w, r, &form) {
		return
	}
	details := map[string][]string{}
	if strings.TrimSpace(form.Title) == "" {
		details["title"] = []string{"title is required"}
	}
	if form.TypeID <= 0 {
		details["typeId"] = []string{"type is required"}
	}
	if len(details) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "validation failed", details)
		return
	}

	acc := ts.currentAccount(r)
	ts.mu.Lock()
	t := ts.insertTicketLocked(ticket.Ticket{
		Title:        form.Title,
		Description:  form.Description,
		TypeID:       form.TypeID,
		PriorityID:   form.PriorityID,
		DepartmentID: form.DepartmentID,
		AssigneeID:   form.AssigneeID,
		ReporterID:   acc.user.ID,
		DueDate:      form.DueDate,
		Tags:         form.Tags,
		CustomFields: form.CustomFields,
	})
	ts.mu.Unlock()
	writeData(w, http.StatusCreated, t)
}

func (ts *TestServer) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ts.mu.Lock()
	idx := ts.findTicketLocked(id)
	var t ticket.Ticket
	if idx >= 0 {
		t = ts.tickets[idx]
	}
	ts.mu.Unlock()
	if idx < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "ticket not found", nil)
		return
	}
	writeData(w, http.StatusOK, t)
}

func (ts *TestServer) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var form ticket.UpdateForm
	if !decodeBody(w, r, &form) {
		return
	}
	acc := ts.currentAccount(r)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	idx := ts.findTicketLocked(id)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "ticket not found", nil)
		return
	}
	t := &ts.tickets[idx]
	if form.Title != nil {
		t.Title = *form.Title
	}
	if form.Description != nil {
		t.Description = *form.Description
	}
	if form.TypeID != nil {
		t.TypeID = *form.TypeID
	}
	if form.PriorityID != nil {
		t.PriorityID = *form.PriorityID
	}
	if form.DepartmentID != nil {
		t.DepartmentID = *form.DepartmentID
	}
	if form.AssigneeID != nil {
		t.AssigneeID = form.AssigneeID
	}
	if form.StatusID != nil {
		t.StatusID = *form.StatusID
	}
	if form.DueDate != nil {
		t.DueDate = form.DueDate
	}
	if form.Tags != nil {
		t.Tags = form.Tags
	}
	if form.CustomFields != nil {
		t.CustomFields = form.CustomFields
	}
	now := time.Now().UTC()
	t.UpdatedAt = now
	ts.history[id] = append(ts.history[id], ticket.HistoryEntry{
		ID:          ts.newIDLocked(),
		TicketID:    id,
		Action:      "updated",
		Description: "ticket updated",
		UserID:      acc.user.ID,
		CreatedAt:   now,
	})
	writeData(w, http.StatusOK, *t)
}

func (ts *TestServer) handleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	idx := ts.findTicketLocked(id)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "ticket not found", nil)
		return
	}
	ts.tickets = append(ts.tickets[:idx], ts.tickets[idx+1:]...)
	delete(ts.comments, id)
	delete(ts.attachments, id)
	delete(ts.history, id)
	delete(ts.approvals, id)
	writeData(w, http.StatusOK, nil)
}

// ticketExists answers 404 and reports false when the ticket is unknown.
func (ts *TestServer) ticketExists(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return 0, false
	}
	ts.mu.Lock()
	idx := ts.findTicketLocked(id)
	ts.mu.Unlock()
	if idx < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "ticket not found", nil)
		return 0, false
	}
	return id, true
}

func (ts *TestServer) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := ts.ticketExists(w, r)
	if !ok {
		return
	}
	ts.mu.Lock()
	out := append([]ticket.Comment{}, ts.comments[id]...)
	ts.mu.Unlock()
	writeData(w, http.StatusOK, out)
}

func (ts *TestServer) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := ts.ticketExists(w, r)
	if !ok {
		return
	}
	var form ticket.CommentForm
	if !decodeBody(w, r, &form) {
		return
	}
	if strings.TrimSpace(form.Content) == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "validation failed",
			map[string]string{"content": "content is required"})
		return
	}
	acc := ts.currentAccount(r)

	ts.mu.Lock()
	now := time.Now().UTC()
	c := ticket.Comment{
		ID:         ts.newIDLocked(),
		TicketID:   id,
		Content:    form.Content,
		AuthorID:   acc.user.ID,
		IsInternal: form.IsInternal,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	ts.comments[id] = append(ts.comments[id], c)
	ts.mu.Unlock()
	writeData(w, http.StatusCreated, c)
}

func (ts *TestServer) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	id, ok := ts.ticketExists(w, r)
	if !ok {
		return
	}
	ts.mu.Lock()
	out := append([]ticket.Attachment{}, ts.attachments[id]...)
	ts.mu.Unlock()
	writeData(w, http.StatusOK, out)
}

func (ts *TestServer) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := ts.ticketExists(w, r)
	if !ok {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "missing file part", nil)
		return
	}
	defer file.Close()
	size, err := io.Copy(io.Discard, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable file part", nil)
		return
	}
	acc := ts.currentAccount(r)

	ts.mu.Lock()
	attID := ts.newIDLocked()
	a := ticket.Attachment{
		ID:           attID,
		TicketID:     id,
		Filename:     strconv.FormatInt(attID, 10) + "-" + header.Filename,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         size,
		URL:          "/files/" + strconv.FormatInt(attID, 10),
		UploadedByID: acc.user.ID,
		CreatedAt:    time.Now().UTC(),
	}
	ts.attachments[id] = append(ts.attachments[id], a)
	ts.mu.Unlock()
	writeData(w, http.StatusCreated, a)
}

func (ts *TestServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := ts.ticketExists(w, r)
	if !ok {
		return
	}
	ts.mu.Lock()
	out := append([]ticket.HistoryEntry{}, ts.history[id]...)
	ts.mu.Unlock()
	writeData(w, http.StatusOK, out)
}

func (ts *TestServer) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	id, ok := ts.ticketExists(w, r)
	if !ok {
		return
	}
	ts.mu.Lock()
	out := append([]ticket.Approval{}, ts.approvals[id]...)
	ts.mu.Unlock()
	writeData(w, http.StatusOK, out)
}

func (ts *TestServer) handleSubmitApproval(w http.ResponseWriter, r *http.Request) {
	id, ok := ts.ticketExists(w, r)
	if !ok {
		return
	}
	var form ticket.ApprovalForm
	if !decodeBody(w, r, &form) {
		return
	}
	acc := ts.currentAccount(r)

	ts.mu.Lock()
	now := time.Now().UTC()
	a := ticket.Approval{
		ID:         ts.newIDLocked(),
		TicketID:   id,
		StepID:     form.StepID,
		ApproverID: acc.user.ID,
		Status:     form.Status,
		Comment:    form.Comment,
		ApprovedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	ts.approvals[id] = append(ts.approvals[id], a)
	ts.mu.Unlock()
	writeData(w, http.StatusCreated, a)
}

func (ts *TestServer) handleTicketStats(w http.ResponseWriter, _ *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	stats := ticket.Stats{ByPriority: map[string]int{}}
	now := time.Now()
	for _, t := range ts.tickets {
		stats.Total++
		switch t.StatusID {
		case statusOpen:
			stats.Open++
		case statusInProgress:
			stats.InProgress++
		case statusResolved:
			stats.Resolved++
		case statusClosed:
			stats.Closed++
		}
		if t.DueDate != nil && t.DueDate.Before(now) && t.StatusID < statusResolved {
			stats.Overdue++
		}
		stats.ByPriority[strconv.FormatInt(t.PriorityID, 10)]++
	}
	writeData(w, http.StatusOK, stats)
}

func (ts *TestServer) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	acc := ts.currentAccount(r)
	q := r.URL.Query()
	typ := notification.Type(q.Get("type"))
	isRead, filterRead := q.Get("isRead"), q.Has("isRead")

	ts.mu.Lock()
	var matched []notification.Notification
	unread := 0
	for i := len(ts.notifications) - 1; i >= 0; i-- {
		n := ts.notifications[i]
		if n.UserID != acc.user.ID {
			continue
		}
		if !n.IsRead {
			unread++
		}
		if typ != "" && n.Type != typ {
			continue
		}
		if filterRead && strconv.FormatBool(n.IsRead) != isRead {
			continue
		}
		matched = append(matched, n)
	}
	ts.mu.Unlock()

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)
	items, totalPages := paginate(matched, page, pageSize)
	writeData(w, http.StatusOK, notification.Page{
		Page: listing.Page[notification.Notification]{
			Items:      items,
			Total:      len(matched),
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
		UnreadCount: unread,
	})
}

func (ts *TestServer) handleRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	acc := ts.currentAccount(r)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	for i := range ts.notifications {
		n := &ts.notifications[i]
		if n.ID == id && n.UserID == acc.user.ID {
			markRead(n)
			writeData(w, http.StatusOK, nil)
			return
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "notification not found", nil)
}

func (ts *TestServer) handleReadAll(w http.ResponseWriter, r *http.Request) {
	acc := ts.currentAccount(r)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for i := range ts.notifications {
		if ts.notifications[i].UserID == acc.user.ID {
			markRead(&ts.notifications[i])
		}
	}
	writeData(w, http.StatusOK, nil)
}

func markRead(n *notification.Notification) {
	if n.IsRead {
		return
	}
	now := time.Now().UTC()
	n.IsRead = true
	n.ReadAt = &now
}

func (ts *TestServer) seedWorkflow() {
	now := time.Now().UTC()
	wfID := ts.newIDLocked()
	ts.workflows = append(ts.workflows, workflow.Workflow{
		ID:       wfID,
		Name:     "Standard",
		IsActive: true,
		Steps: []workflow.Step{
			{ID: ts.newIDLocked(), WorkflowID: wfID, Name: "Resolve", StepOrder: 2, StatusID: statusResolved, AssigneeType: workflow.AssigneeDepartment, CreatedAt: now, UpdatedAt: now},
			{ID: ts.newIDLocked(), WorkflowID: wfID, Name: "Triage", StepOrder: 1, StatusID: statusInProgress, AssigneeType: workflow.AssigneeRole, IsRequired: true, CreatedAt: now, UpdatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// WorkflowID returns the id of the seeded workflow.
func (ts *TestServer) WorkflowID() int64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.workflows[0].ID
}

func (ts *TestServer) findWorkflowLocked(id int64) *workflow.Workflow {
	for i := range ts.workflows {
		if ts.workflows[i].ID == id {
			return &ts.workflows[i]
		}
	}
	return nil
}

func (ts *TestServer) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	ts.mu.Lock()
	var matched []workflow.Workflow
	for _, wf := range ts.workflows {
		if search != "" && !strings.Contains(strings.ToLower(wf.Name), search) {
			continue
		}
		matched = append(matched, wf)
	}
	ts.mu.Unlock()

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)
	items, totalPages := paginate(matched, page, pageSize)
	writeData(w, http.StatusOK, listing.Page[workflow.Workflow]{
		Items: items, Total: len(matched), Page: page, PageSize: pageSize, TotalPages: totalPages,
	})
}

func (ts *TestServer) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	wf := ts.findWorkflowLocked(id)
	if wf == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "workflow not found", nil)
		return
	}
	writeData(w, http.StatusOK, *wf)
}

func (ts *TestServer) handleListSteps(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	wf := ts.findWorkflowLocked(id)
	if wf == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "workflow not found", nil)
		return
	}
	writeData(w, http.StatusOK, append([]workflow.Step{}, wf.Steps...))
}

func (ts *TestServer) handleCreateStep(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var form workflow.StepForm
	if !decodeBody(w, r, &form) {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	wf := ts.findWorkflowLocked(id)
	if wf == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "workflow not found", nil)
		return
	}
	now := time.Now().UTC()
	step := stepFromForm(form)
	step.ID = ts.newIDLocked()
	step.WorkflowID = id
	step.CreatedAt, step.UpdatedAt = now, now
	wf.Steps = append(wf.Steps, step)
	writeData(w, http.StatusCreated, step)
}

func (ts *TestServer) handleUpdateStep(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stepID, ok := pathID(w, r, "stepId")
	if !ok {
		return
	}
	var form workflow.StepForm
	if !decodeBody(w, r, &form) {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if wf := ts.findWorkflowLocked(id); wf != nil {
		for i := range wf.Steps {
			if wf.Steps[i].ID == stepID {
				updated := stepFromForm(form)
				updated.ID, updated.WorkflowID = stepID, id
				updated.CreatedAt, updated.UpdatedAt = wf.Steps[i].CreatedAt, time.Now().UTC()
				wf.Steps[i] = updated
				writeData(w, http.StatusOK, updated)
				return
			}
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "step not found", nil)
}

func (ts *TestServer) handleDeleteStep(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stepID, ok := pathID(w, r, "stepId")
	if !ok {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if wf := ts.findWorkflowLocked(id); wf != nil {
		for i := range wf.Steps {
			if wf.Steps[i].ID == stepID {
				wf.Steps = append(wf.Steps[:i], wf.Steps[i+1:]...)
				writeData(w, http.StatusOK, nil)
				return
			}
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "step not found", nil)
}

func stepFromForm(form workflow.StepForm) workflow.Step {
	return workflow.Step{
		Name:         form.Name,
		Description:  form.Description,
		StepOrder:    form.StepOrder,
		StatusID:     form.StatusID,
		AssigneeType: form.AssigneeType,
		AssigneeID:   form.AssigneeID,
		IsRequired:   form.IsRequired,
		TimeLimit:    form.TimeLimit,
		Conditions:   form.Conditions,
		Actions:      form.Actions,
	}
}

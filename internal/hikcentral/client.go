package hikcentral

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/audit"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

// timeLayout is the ISO-8601 form the OpenAPI accepts for validity windows
const timeLayout = "2006-01-02T15:04:05-07:00"

const maxResponseSize = 1 << 20

type Config struct {
	BaseURL      string
	AppKey       string
	AppSecret    string
	OrgIndexCode string
	Timeout      time.Duration
	InsecureTLS  bool
	DryRun       bool
}

// Client talks to the HikCentral OpenAPI with Artemis request signing
type Client struct {
	config     Config
	httpClient *http.Client
	audit      audit.Logger
	logger     *slog.Logger
	now        func() time.Time
	nonce      func() string
}

func NewClient(cfg Config, auditLog audit.Logger, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.OrgIndexCode == "" {
		cfg.OrgIndexCode = "1"
	}
	if auditLog == nil {
		auditLog = &audit.NoOpLogger{}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		// appliances usually ship self-signed certificates
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		audit:  auditLog,
		logger: logger.With("component", "hikcentral"),
		now:    time.Now,
		nonce:  func() string { return uuid.NewString() },
	}
}

// CreatePerson provisions a person and returns the identity key HikCentral assigned
func (c *Client) CreatePerson(ctx context.Context, rec *domain.WorkerRecord) (string, error) {
	req := personRequest{
		PersonCode:      rec.InternalID,
		PersonName:      rec.Name,
		OrgIndexCode:    c.config.OrgIndexCode,
		Gender:          genderCode(rec.Gender),
		PhoneNo:         rec.Phone,
		Email:           rec.Email,
		CertificateType: certificateTypeIDCard,
		CertificateNo:   rec.NationalID,
		BeginTime:       formatTime(rec.ValidFrom),
		EndTime:         formatTime(rec.ValidTo),
	}

	if c.config.DryRun {
		c.recordDryRun(ctx, pathPersonAdd, req)
		return rec.InternalID, nil
	}

	data, err := c.do(ctx, "create person", pathPersonAdd, req)
	if err != nil {
		return "", err
	}

	personID := parsePersonID(data)
	if personID == "" {
		return "", domain.ErrExternalSystem.WithError(errors.New("create person: response carried no personId"))
	}
	return personID, nil
}

func (c *Client) UpdatePerson(ctx context.Context, externalID string, rec *domain.WorkerRecord) error {
	req := personRequest{
		PersonID:        externalID,
		PersonCode:      rec.InternalID,
		PersonName:      rec.Name,
		OrgIndexCode:    c.config.OrgIndexCode,
		Gender:          genderCode(rec.Gender),
		PhoneNo:         rec.Phone,
		Email:           rec.Email,
		CertificateType: certificateTypeIDCard,
		CertificateNo:   rec.NationalID,
		BeginTime:       formatTime(rec.ValidFrom),
		EndTime:         formatTime(rec.ValidTo),
	}
	return c.call(ctx, "update person", pathPersonUpdate, req)
}

func (c *Client) DeletePerson(ctx context.Context, externalID string) error {
	return c.call(ctx, "delete person", pathPersonDelete, personDeleteRequest{PersonID: externalID})
}

// ExtendValidity moves only the end of the access window
func (c *Client) ExtendValidity(ctx context.Context, externalID string, validTo time.Time) error {
	req := personRequest{
		PersonID: externalID,
		EndTime:  formatTime(validTo),
	}
	return c.call(ctx, "extend validity", pathPersonUpdate, req)
}

func (c *Client) AttachBiometric(ctx context.Context, externalID string, image []byte) error {
	if len(image) == 0 {
		return domain.ErrExternalSystem.WithError(errors.New("attach biometric: empty image"))
	}
	req := faceAddRequest{
		PersonID: externalID,
		FaceData: base64.StdEncoding.EncodeToString(image),
	}
	return c.call(ctx, "attach biometric", pathFaceAdd, req)
}

func (c *Client) GrantAccess(ctx context.Context, externalID, groupID string, validFrom, validTo time.Time) error {
	req := privilegeGrantRequest{
		PrivilegeGroupID: groupID,
		Type:             privilegeTypeAccessControl,
		List:             []privilegeMember{{ID: externalID}},
		BeginTime:        formatTime(validFrom),
		EndTime:          formatTime(validTo),
	}
	return c.call(ctx, "grant access", pathPrivilegeGrant, req)
}

func (c *Client) call(ctx context.Context, op, path string, payload any) error {
	if c.config.DryRun {
		c.recordDryRun(ctx, path, payload)
		return nil
	}
	_, err := c.do(ctx, op, path, payload)
	return err
}

// do signs and sends one POST; success needs HTTP < 400 and code "0"
func (c *Client) do(ctx context.Context, op, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: marshal request: %w", op, err))
	}

	event := audit.Event{
		System:      audit.SystemHikCentral,
		Method:      http.MethodPost,
		Endpoint:    path,
		RequestBody: auditBodyOf(payload, body),
	}
	start := c.now()
	defer func() {
		event.DurationMs = c.now().Sub(start).Milliseconds()
		c.record(ctx, event)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.config.BaseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		event.Message = err.Error()
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: build request: %w", op, err))
	}
	c.sign(req, body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		event.Message = err.Error()
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: %w", op, err))
	}
	defer func() { _ = resp.Body.Close() }()

	event.StatusCode = resp.StatusCode

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		event.Message = err.Error()
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: read response: %w", op, err))
	}
	event.ResponseBody = string(respBody)

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		msg := env.Msg
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		event.Message = msg
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: http %d: %s", op, resp.StatusCode, msg))
	}
	if decodeErr != nil {
		event.Message = "malformed response"
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: decode response: %w", op, decodeErr))
	}
	if !env.ok() {
		msg := env.Msg
		if msg == "" {
			msg = "code " + string(env.Code)
		}
		event.Message = msg
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: %s", op, msg))
	}

	event.Success = true
	return env.Data, nil
}

func (c *Client) sign(req *http.Request, body []byte) {
	nonce := c.nonce()
	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderKey, c.config.AppKey)
	req.Header.Set(HeaderNonce, nonce)
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderSignature, Sign(c.config.AppSecret, c.config.AppKey, nonce, timestamp, body))
	req.Header.Set(HeaderSignatureHeaders, SignedHeaders)
}

func (c *Client) recordDryRun(ctx context.Context, path string, payload any) {
	body, _ := json.Marshal(payload)
	c.record(ctx, audit.Event{
		System:       audit.SystemHikCentral,
		Method:       http.MethodPost,
		Endpoint:     path,
		StatusCode:   http.StatusOK,
		Success:      true,
		RequestBody:  auditBodyOf(payload, body),
		ResponseBody: `{"code":"0"}`,
		DryRun:       true,
	})
}

func (c *Client) record(ctx context.Context, event audit.Event) {
	if err := c.audit.Log(context.WithoutCancel(ctx), event); err != nil {
		c.logger.Warn("failed to record request", "endpoint", event.Endpoint, "error", err)
	}
}

func auditBodyOf(payload any, body []byte) string {
	if a, ok := payload.(auditable); ok {
		return a.auditBody()
	}
	return string(body)
}

// parsePersonID accepts {"personId":"..."} or a bare string
func parsePersonID(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var obj personAddData
	if err := json.Unmarshal(data, &obj); err == nil && obj.PersonID != "" {
		return obj.PersonID
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return ""
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

package hikcentral

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	pathPersonAdd      = "/api/resource/v1/person/single/add"
	pathPersonUpdate   = "/api/resource/v1/person/single/update"
	pathPersonDelete   = "/api/resource/v1/person/single/delete"
	pathFaceAdd        = "/api/resource/v1/face/single/add"
	pathPrivilegeGrant = "/api/acs/v1/privilege/group/single/addPersons"
)

// certificateTypeIDCard marks certificateNo as a national id
const certificateTypeIDCard = 111

// privilegeTypeAccessControl is the access-control privilege family in addPersons
const privilegeTypeAccessControl = 1

type personRequest struct {
	PersonID        string `json:"personId,omitempty"`
	PersonCode      string `json:"personCode,omitempty"`
	PersonName      string `json:"personName,omitempty"`
	OrgIndexCode    string `json:"orgIndexCode,omitempty"`
	Gender          string `json:"gender,omitempty"`
	PhoneNo         string `json:"phoneNo,omitempty"`
	Email           string `json:"email,omitempty"`
	CertificateType int    `json:"certificateType,omitempty"`
	CertificateNo   string `json:"certificateNo,omitempty"`
	BeginTime       string `json:"beginTime,omitempty"`
	EndTime         string `json:"endTime,omitempty"`
	Remark          string `json:"remark,omitempty"`
}

type personDeleteRequest struct {
	PersonID string `json:"personId"`
}

type faceAddRequest struct {
	PersonID string `json:"personId"`
	FaceData string `json:"faceData"`
}

// auditBody keeps the base64 image out of the request log
func (r faceAddRequest) auditBody() string {
	return fmt.Sprintf(`{"personId":%q,"faceData":"<%d base64 chars>"}`, r.PersonID, len(r.FaceData))
}

type privilegeMember struct {
	ID string `json:"id"`
}

type privilegeGrantRequest struct {
	PrivilegeGroupID string            `json:"privilegeGroupId"`
	Type             int               `json:"type"`
	List             []privilegeMember `json:"list"`
	BeginTime        string            `json:"beginTime,omitempty"`
	EndTime          string            `json:"endTime,omitempty"`
}

// auditable payloads choose what the request log stores
type auditable interface {
	auditBody() string
}

// responseCode accepts "0" or 0; appliances differ
type responseCode string

func (c *responseCode) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*c = responseCode(v)
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid response code %s", s)
	}
	*c = responseCode(strconv.FormatInt(n, 10))
	return nil
}

type envelope struct {
	Code responseCode    `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (e envelope) ok() bool {
	return e.Code == "0"
}

type personAddData struct {
	PersonID string `json:"personId"`
}

// genderCode maps roster values onto 1 (male), 2 (female), 0 (unknown)
func genderCode(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "1", "m", "male":
		return "1"
	case "2", "f", "female":
		return "2"
	default:
		return "0"
	}
}

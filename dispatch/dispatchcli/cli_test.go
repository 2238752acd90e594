package dispatchcli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/urfave/cli"

	"github.com/creditarchitect/dispatch-app/conf"
	"github.com/creditarchitect/dispatch-app/dispatch/letters"
)

type CLITestSuite struct {
	suite.Suite
	app    *cli.App
	out    bytes.Buffer
	errOut bytes.Buffer
}

func TestCLITestSuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (s *CLITestSuite) SetupTest() {
	s.app = setUpApp()
	s.out.Reset()
	s.errOut.Reset()
	s.app.Writer = &s.out
	s.app.ErrWriter = &s.errOut

	conf.SetEnv(s.T(), "DISPUTE_LOG_PATH", filepath.Join(s.T().TempDir(), "dispute_tracker.json"))
}

func (s *CLITestSuite) TearDownTest() {
	conf.UnsetEnv(s.T(), "DISPUTE_LOG_PATH")
	conf.UnsetEnv(s.T(), "LOB_API_KEY")
	conf.UnsetEnv(s.T(), "LOB_BASE_URL")
}

var sendArgs = []string{
	"--name", "Jordan Avery",
	"--address", "123 Main St",
	"--city", "Austin",
	"--state", "TX",
	"--zip", "78701",
	"--account", "Acme Card Services",
	"--reason", "Account not mine",
}

func (s *CLITestSuite) TestSendMissingRequiredFlags() {
	// No LOB_API_KEY is set: a usage error must surface before the client is
	// ever constructed.
	err := s.app.Run([]string{"dispatch", "send", "--type", "basic_bureau", "--target", "equifax"})
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "--name is required")
}

func (s *CLITestSuite) TestSendMissingTarget() {
	args := append([]string{"dispatch", "send", "--type", "basic_bureau"}, sendArgs...)
	err := s.app.Run(args)
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "--target is required")
}

func (s *CLITestSuite) TestSendUnknownLetterType() {
	args := append([]string{"dispatch", "send", "--type", "singing_telegram", "--target", "equifax"}, sendArgs...)
	err := s.app.Run(args)
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "unknown letter type")
	assert.Contains(s.T(), err.Error(), "basic_bureau")
}

func (s *CLITestSuite) TestSendUnknownTargetWithoutCustomRecipient() {
	args := append([]string{"dispatch", "send", "--type", "basic_bureau", "--target", "innovis"}, sendArgs...)
	err := s.app.Run(args)
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "equifax, experian, transunion")
}

func (s *CLITestSuite) TestSendRequiresAccount() {
	err := s.app.Run([]string{"dispatch", "send",
		"--type", "basic_bureau", "--target", "equifax",
		"--name", "Jordan Avery", "--address", "123 Main St",
		"--city", "Austin", "--state", "TX", "--zip", "78701"})
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "--account")
}

func (s *CLITestSuite) TestSendMissingAPIKey() {
	args := append([]string{"dispatch", "send", "--type", "basic_bureau", "--target", "equifax"}, sendArgs...)
	err := s.app.Run(args)
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "LOB_API_KEY")
}

func (s *CLITestSuite) startGateway() *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/us_verifications":
			fmt.Fprint(w, `{"deliverability": "deliverable"}`)
		case "/letters":
			fmt.Fprint(w, `{"id": "ltr_cli", "tracking_number": "94001", "carrier": "USPS", "price": "7.95"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	conf.SetEnv(s.T(), "LOB_API_KEY", "test_cli")
	conf.SetEnv(s.T(), "LOB_BASE_URL", server.URL)
	return server
}

func (s *CLITestSuite) TestSendEndToEnd() {
	server := s.startGateway()
	defer server.Close()

	args := append([]string{"dispatch", "send", "--type", "basic_bureau", "--target", "equifax"}, sendArgs...)
	err := s.app.Run(args)
	assert.Nil(s.T(), err)
	assert.Contains(s.T(), s.out.String(), "ltr_cli")
	assert.Contains(s.T(), s.out.String(), "test mode")

	// The dispatch shows up in the tracker.
	s.out.Reset()
	assert.Nil(s.T(), s.app.Run([]string{"dispatch", "pending"}))
	assert.Contains(s.T(), s.out.String(), "ltr_cli")
	assert.Contains(s.T(), s.out.String(), "basic_bureau")
}

func (s *CLITestSuite) TestSendAllEndToEnd() {
	server := s.startGateway()
	defer server.Close()

	args := append([]string{"dispatch", "send-all", "--type", "basic_bureau"}, sendArgs...)
	err := s.app.Run(args)
	// The stub gateway returns the same letter ID three times and the store
	// enforces uniqueness, so only the first record persists.
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), s.out.String(), "ltr_cli")
}

func (s *CLITestSuite) TestPendingEmptyStore() {
	err := s.app.Run([]string{"dispatch", "pending"})
	assert.Nil(s.T(), err)
	assert.Contains(s.T(), s.out.String(), "No disputes awaiting a response")
}

func (s *CLITestSuite) TestOverdueEmptyStore() {
	err := s.app.Run([]string{"dispatch", "overdue"})
	assert.Nil(s.T(), err)
	assert.Contains(s.T(), s.out.String(), "No disputes awaiting a response")
}

func (s *CLITestSuite) TestUpdateStatusRequiresFlags() {
	err := s.app.Run([]string{"dispatch", "update-status"})
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "--letter-id is required")

	err = s.app.Run([]string{"dispatch", "update-status", "--letter-id", "ltr_1"})
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "--status is required")
}

func (s *CLITestSuite) TestUpdateStatusNotFound() {
	err := s.app.Run([]string{"dispatch", "update-status", "--letter-id", "ltr_ghost", "--status", "resolved"})
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "no dispute found")
}

func (s *CLITestSuite) TestUpdateStatusEndToEnd() {
	server := s.startGateway()
	defer server.Close()

	args := append([]string{"dispatch", "send", "--type", "basic_bureau", "--target", "equifax"}, sendArgs...)
	assert.Nil(s.T(), s.app.Run(args))

	s.out.Reset()
	err := s.app.Run([]string{"dispatch", "update-status", "--letter-id", "ltr_cli", "--status", "resolved"})
	assert.Nil(s.T(), err)
	assert.Contains(s.T(), s.out.String(), "ltr_cli is now resolved")

	s.out.Reset()
	assert.Nil(s.T(), s.app.Run([]string{"dispatch", "pending"}))
	assert.NotContains(s.T(), s.out.String(), "ltr_cli")
}

func (s *CLITestSuite) TestStatusRequiresLetterID() {
	err := s.app.Run([]string{"dispatch", "status"})
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "--letter-id is required")
}

func (s *CLITestSuite) TestReconcileRequiresLetterID() {
	err := s.app.Run([]string{"dispatch", "reconcile"})
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "--letter-id is required")
}

func (s *CLITestSuite) TestTypesListsCatalog() {
	err := s.app.Run([]string{"dispatch", "types"})
	assert.Nil(s.T(), err)
	assert.Contains(s.T(), s.out.String(), "basic_bureau")
	assert.Contains(s.T(), s.out.String(), "demand_letter")
	assert.Contains(s.T(), s.out.String(), "FCRA")
}

func TestParseExtras(t *testing.T) {
	extra, err := parseExtras([]string{"settlement_amount=500", "violations=a;b"})
	assert.Nil(t, err)
	assert.Equal(t, "500", extra["settlement_amount"])
	assert.Equal(t, []string{"a", "b"}, extra["violations"])

	_, err = parseExtras([]string{"no-equals-sign"})
	assert.NotNil(t, err)

	extra, err = parseExtras(nil)
	assert.Nil(t, err)
	assert.Equal(t, letters.Context(nil), extra)
}

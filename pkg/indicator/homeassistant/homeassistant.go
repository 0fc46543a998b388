package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/echocat/slf4g"

	"github.com/blaubaer/remote-ptt/pkg/common"
	"github.com/blaubaer/remote-ptt/pkg/credentials"
	"github.com/blaubaer/remote-ptt/pkg/indicator"
	"github.com/blaubaer/remote-ptt/pkg/ptt"
)

const DefaultServer = "http://homeassistant.local:8123/"

type Homeassistant struct {
	conf         *Configuration
	saveConfFunc func() error
	mutex        sync.RWMutex

	lastState atomic.Pointer[state]

	client http.Client
}

func (this *Homeassistant) Initialize(conf *Configuration, saveConfFunc func() error) error {
	this.conf = conf
	this.saveConfFunc = saveConfFunc

	return this.Update()
}

func (this *Homeassistant) Update() error {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	rsp, err := this.do(http.MethodGet, "/api/", nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = rsp.Body.Close()
	}()
	if rsp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d - %s", rsp.StatusCode, rsp.Status)
	}

	return nil
}

func (this *Homeassistant) Ensure(v ptt.State) error {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	target := state{
		state:     entityStateOf(v),
		timestamp: time.Now(),
	}
	logger := log.With("entityId", this.conf.EntityId)

	if last := this.lastState.Load(); last != nil {
		if last.timestamp.Add(this.conf.DeadZoneInterval).After(time.Now()) && last.state == target.state {
			logger.Debug("Entity is already in requested state (while dead zone timeout). No updated needed.")
			return nil
		}
	}

	current, attributes, err := this.retrieve()
	if err != nil {
		return err
	}

	if attributes != nil && current.state == target.state {
		logger.Debug("Entity is already in requested state. No updated needed.")
		this.lastState.Store(&current)
		return nil
	}

	if attributes == nil {
		logger.Info("Entity not found. It will be created now...")
		attributes = map[string]any{
			"icon":          "mdi:radio-handheld",
			"friendly_name": strings.TrimPrefix(this.conf.EntityId, "input_boolean."),
		}
	}
	attributes["editable"] = false

	body, err := json.Marshal(statePostRequest{
		State:      target.state,
		Attributes: attributes,
	})
	if err != nil {
		return err
	}

	rsp, err := this.do(http.MethodPost, "/api/states/"+this.conf.EntityId, body)
	if err != nil {
		return err
	}
	defer func() {
		_ = rsp.Body.Close()
	}()
	if rsp.StatusCode != http.StatusOK && rsp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d - %s", rsp.StatusCode, rsp.Status)
	}

	logger.With("state", target.state).
		Debug("Entity updated.")
	this.lastState.Store(&target)

	return nil
}

// retrieve returns nil attributes if the entity does not exist yet.
func (this *Homeassistant) retrieve() (state, map[string]any, error) {
	rsp, err := this.do(http.MethodGet, "/api/states/"+this.conf.EntityId, nil)
	if err != nil {
		return state{}, nil, err
	}
	defer func() {
		_ = rsp.Body.Close()
	}()

	switch rsp.StatusCode {
	case http.StatusOK:
		var gRsp stateGetResponse
		if err := json.NewDecoder(rsp.Body).Decode(&gRsp); err != nil {
			return state{}, nil, fmt.Errorf("failed to decode response body: %w", err)
		}
		attributes := gRsp.Attributes
		if attributes == nil {
			attributes = make(map[string]any)
		}
		return state{timestamp: time.Now(), state: gRsp.State}, attributes, nil
	case http.StatusNotFound:
		return state{timestamp: time.Now()}, nil, nil
	default:
		return state{}, nil, fmt.Errorf("unexpected status code: %d - %s", rsp.StatusCode, rsp.Status)
	}
}

func (this *Homeassistant) loadCredentials() (credentials.Credentials, error) {
	var v credentials.Credentials
	if _, err := v.ReadFromStore(); err != nil {
		return credentials.Credentials{}, err
	}
	v.Merge(credentials.Credentials{
		HomeAssistantServer: this.conf.Server,
		HomeAssistantToken:  this.conf.Token,
	})
	return v, nil
}

func (this *Homeassistant) storeCredentials(cred credentials.Credentials) error {
	var existing credentials.Credentials
	if _, err := existing.ReadFromStore(); err != nil {
		return err
	}
	existing.HomeAssistantServer = cred.HomeAssistantServer
	existing.HomeAssistantToken = cred.HomeAssistantToken

	supported, err := existing.WriteToStore()
	if err != nil {
		return err
	}
	if supported {
		return nil
	}

	this.conf.Server = cred.HomeAssistantServer
	this.conf.Token = cred.HomeAssistantToken
	if this.saveConfFunc == nil {
		return nil
	}
	return this.saveConfFunc()
}

type resolveCredentialsReason uint8

const (
	resolveCredentialsReasonDefault resolveCredentialsReason = iota
	resolveCredentialsReasonInvalidToken
)

func (this *Homeassistant) resolveCredentials(reason resolveCredentialsReason) (credentials.Credentials, error) {
	cred, err := this.loadCredentials()
	if err != nil {
		return credentials.Credentials{}, err
	}

	if reason == resolveCredentialsReasonDefault && !cred.IsHomeAssistantZero() {
		return cred, nil
	}

	switch reason {
	case resolveCredentialsReasonInvalidToken:
		log.With("server", cred.HomeAssistantServer).
			Error("Home Assistant rejected the long live token.")
	default:
		log.Info("Server URL and long live token required to access Home Assistant.")
	}

	for {
		cred.HomeAssistantServer = ""
		cred.HomeAssistantToken = ""
		if err := common.RequestStringContentIfRequiredFromTerminal(&cred.HomeAssistantServer, fmt.Sprintf("Server URL (empty = %s)", DefaultServer), true, false); err != nil {
			return credentials.Credentials{}, fmt.Errorf("cannot request server url: %w", err)
		}
		if cred.HomeAssistantServer == "" {
			cred.HomeAssistantServer = DefaultServer
		}
		if err := common.RequestStringContentIfRequiredFromTerminal(&cred.HomeAssistantToken, "Token", false, true); err != nil {
			return credentials.Credentials{}, fmt.Errorf("cannot request token: %w", err)
		}

		serverOk, tokenOk, err := this.check(cred)
		if err != nil {
			return credentials.Credentials{}, err
		}
		if serverOk && tokenOk {
			if err := this.storeCredentials(cred); err != nil {
				return credentials.Credentials{}, fmt.Errorf("cannot store credentials: %w", err)
			}
			return cred, nil
		}

		if !serverOk {
			log.With("server", cred.HomeAssistantServer).
				Error("Provided Home Assistant's server URL is invalid.")
		} else {
			log.With("server", cred.HomeAssistantServer).
				Error("Provided Home Assistant's long live token is invalid.")
		}
	}
}

func (this *Homeassistant) check(cred credentials.Credentials) (serverOk, tokenOk bool, err error) {
	rsp, err := this.request(cred, http.MethodGet, "/api/", nil)
	if err != nil {
		return false, false, err
	}
	_ = rsp.Body.Close()
	switch rsp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true, false, nil
	case http.StatusOK:
		return true, true, nil
	default:
		return false, false, nil
	}
}

func (this *Homeassistant) request(cred credentials.Credentials, method, path string, body []byte) (*http.Response, error) {
	timeout := this.conf.RequestTimeout
	if timeout <= 0 {
		timeout = time.Second * 10
	}
	ctx, cancelFunc := context.WithTimeout(context.Background(), timeout)

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(cred.HomeAssistantServer, "/")+path, nil)
	if err != nil {
		cancelFunc()
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.HomeAssistantToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.ContentLength = int64(len(body))
	}

	rsp, err := this.client.Do(req)
	if err != nil {
		cancelFunc()
		return nil, fmt.Errorf("failed to access %v: %w", req.URL, err)
	}
	rsp.Body = &cancelOnClose{rsp.Body, cancelFunc}
	return rsp, nil
}

func (this *Homeassistant) do(method, path string, body []byte) (*http.Response, error) {
	cred, err := this.resolveCredentials(resolveCredentialsReasonDefault)
	if err != nil {
		return nil, err
	}

	for {
		rsp, err := this.request(cred, method, path, body)
		if err != nil {
			return nil, err
		}

		switch rsp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			_ = rsp.Body.Close()
			if cred, err = this.resolveCredentials(resolveCredentialsReasonInvalidToken); err != nil {
				return nil, err
			}
		default:
			return rsp, nil
		}
	}
}

func (this *Homeassistant) Dispose() error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	this.saveConfFunc = nil
	this.lastState.Store(nil)
	return nil
}

func (this *Homeassistant) GetType() indicator.Type {
	return indicator.TypeHomeAssistant
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (this *cancelOnClose) Close() error {
	defer this.cancel()
	return this.ReadCloser.Close()
}

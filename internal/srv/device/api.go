package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mjoret/emovi/apimodel"
	"github.com/mjoret/emovi/internal/srv/config"
	"github.com/mjoret/emovi/internal/srv/event"
	"github.com/mjoret/emovi/internal/tool"
	"github.com/sirupsen/logrus"
)

// Api exposes the display operations over HTTPS. Requests are turned into
// CommandEvents consumed by the central event loop; the handler blocks on
// the result channel so the caller gets the real outcome.
type Api struct {
	lock         sync.RWMutex
	eventChannel chan event.CommandEvent

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config  *config.ServerConfig
	askDone chan bool
	done    chan bool
}

func NewApi(config *config.ServerConfig) *Api {
	api := Api{
		config:       config,
		eventChannel: make(chan event.CommandEvent),
		askDone:      make(chan bool),
		done:         make(chan bool),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key
				apiKey := r.Header.Get("x-api-key")
				if apiKey != config.ServerParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/display/emotion/{name}",
		func(w http.ResponseWriter, r *http.Request) {
			name, ok := mux.Vars(r)["name"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatch(w, event.CommandSetEmotionData{Name: name})
		}).Methods("POST")
	api.apiRouter.HandleFunc("/display/text/{channel}",
		func(w http.ResponseWriter, r *http.Request) {
			channel, ok := mux.Vars(r)["channel"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			text, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4096))
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatch(w, event.CommandSetTextData{Channel: channel, Text: string(text)})
		}).Methods("POST")
	api.apiRouter.HandleFunc("/display/state/{state}",
		func(w http.ResponseWriter, r *http.Request) {
			state, ok := mux.Vars(r)["state"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatch(w, event.CommandSystemStateData{State: state})
		}).Methods("POST")
	api.apiRouter.HandleFunc("/display/event/{name}",
		func(w http.ResponseWriter, r *http.Request) {
			name, ok := mux.Vars(r)["name"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			message, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4096))
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatch(w, event.CommandSendEventData{Event: name, Message: string(message)})
		}).Methods("POST")
	api.apiRouter.HandleFunc("/backlight/{percent}",
		func(w http.ResponseWriter, r *http.Request) {
			percentStr, ok := mux.Vars(r)["percent"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			percent, err := strconv.ParseInt(percentStr, 10, 0)
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatch(w, event.CommandSetBacklightData{Percent: percent})
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.SslPort, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 240,
		WriteTimeout: time.Second * 240,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

func (d *Api) dispatch(w http.ResponseWriter, data interface{}) {
	result := make(chan error)
	d.eventChannel <- event.CommandEvent{Result: result, Data: data}
	err := <-result
	if err == nil {
		ErrorMessageAction(w, "", http.StatusOK)
	} else {
		GlobalErrorAction(w, err.Error(), apimodel.StatusCodeOf(err))
	}
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	existServerCert, err := tool.IsFileExists(d.selfSignedCertFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.selfSignedCertFilename(), err)
	}

	existServerKey, err := tool.IsFileExists(d.selfSignedKeyFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.selfSignedKeyFilename(), err)
	}

	if !existServerCert || !existServerKey {
		logrus.Info("Missing cert and key files, trying to generate them...")
		err = tool.GenerateTlsCertificate(
			"mjoret",
			"Emovi Server",
			d.selfSignedKeyFilename(),
			d.selfSignedCertFilename(),
			[]string{})
		if err != nil {
			logrus.Fatalf("Unable to generate cert and key files : %v\n", err)
		}
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.selfSignedCertFilename(), d.selfSignedKeyFilename())
		if err != nil && err.Error() != "http: Server closed" {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	d.server.Shutdown(context.Background())
}

func (d *Api) EventChannel() chan event.CommandEvent {
	return d.eventChannel
}

func (d *Api) selfSignedKeyFilename() string {
	return filepath.Join(d.config.ConfigDir, "key.pem")
}

func (d *Api) selfSignedCertFilename() string {
	return filepath.Join(d.config.ConfigDir, "cert.pem")
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	errorMessage := &apimodel.ErrorMessage{
		ErrStatusCode: status,
		ErrMessage:    title,
	}

	if title == "" {
		switch status {
		case http.StatusOK:
			errorMessage.ErrMessage = "Ok"
		case http.StatusNotFound:
			errorMessage.ErrMessage = "Page not found"
		case http.StatusMethodNotAllowed:
			errorMessage.ErrMessage = "Method not allowed"
		case http.StatusForbidden:
			errorMessage.ErrMessage = "Forbidden"
		case http.StatusServiceUnavailable:
			errorMessage.ErrMessage = "Service unavailable"
		case http.StatusBadRequest:
			errorMessage.ErrMessage = "Bad request"
		default:
			errorMessage.ErrMessage = "Internal error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorMessage)
}

package main

import (
	"context"
	"flag"
	"os"

	"prngkit/internal/biz"
	"prngkit/internal/conf"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"github.com/go-kratos/kratos/v2/transport/http"
	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "prngkit"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string
	// flagsuite runs the configured suite once instead of serving.
	flagsuite bool

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.BoolVar(&flagsuite, "suite", false, "validate every configured generator once and exit")
}

func newApp(logger log.Logger, gs *grpc.Server, hs *http.Server, streams []transport.Server) *kratos.App {
	servers := []transport.Server{gs, hs}
	servers = append(servers, streams...)
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(servers...),
	)
}

// runSuite 校验全部预置生成器，任一失败返回非零退出码
func runSuite(ctx context.Context, uc *biz.ValidationUsecase, logger log.Logger) int {
	helper := log.NewHelper(logger)

	code := 0
	for _, r := range uc.RunSuite(ctx) {
		if r.Err != nil {
			helper.Errorf("suite: generator=%s error=%v", r.Name, r.Err)
			code = 1
			continue
		}
		for _, cp := range r.Report.Checkpoints {
			helper.Infof("suite: generator=%s draw=%d value=%v", r.Name, cp.Index, cp.Value)
		}
		m := r.Report.Observed
		helper.Infof("suite: generator=%s passed=%t mean=%.6f variance=%.6f skewness=%.6f kurtosis=%.6f chi2_p=%.4f",
			r.Name, r.Report.Passed, m.Mean, m.Variance, m.Skewness, m.Kurtosis, r.Report.ChiSquare.PValue)
		if !r.Report.Passed {
			code = 1
		}
	}
	return code
}

func main() {
	flag.Parse()
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	bc, err := conf.Load(flagconf)
	if err != nil {
		panic(err)
	}

	if flagsuite {
		uc, cleanup, err := wireSuite(bc.GetData(), bc.GetValidation(), logger)
		if err != nil {
			panic(err)
		}
		code := runSuite(context.Background(), uc, logger)
		cleanup()
		os.Exit(code)
	}

	app, cleanup, err := wireApp(bc.GetServer(), bc.GetData(), bc.GetValidation(), logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}

package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/timeslot --output domain/timeslot --outpkg timeslotmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Publisher --dir ../domain/notification --output domain/notification --outpkg notificationmock --filename publisher_mock.go

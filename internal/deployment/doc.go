// Package deployment превращает собранный pipeline в deployment движка.
//
// Builder строит тело запроса: work queue "ddp", тег организации, параметры
// {"config": {"org_slug", "tasks"}} и cron-расписание. Deployer создаёт flow
// и deployment, сохраняет ссылку на deployment в dataflow и публикует
// deployment.created.
package deployment

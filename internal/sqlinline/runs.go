package sqlinline

const QEnsureRunsTable = `--sql 29265db8-05e1-43c1-a1aa-036e4d3eabeb
create table if not exists edit_runs (
    id text primary key,
    status text not null,
    instruction text not null,
    has_person boolean not null default false,
    confidence double precision not null default 0,
    description jsonb,
    prompt text not null default '',
    locator text not null default '',
    error_code text not null default '',
    error_message text not null default '',
    client_country text not null default '',
    created_at timestamptz not null default now()
);
`

const QInsertRun = `--sql 345694a5-dd52-4b62-905f-e26dac232ad6
insert into edit_runs (id, status, instruction, has_person, confidence, description, prompt, locator, error_code, error_message, client_country, created_at)
values ($1::text, $2::text, $3::text, $4::boolean, $5::double precision, $6::jsonb, $7::text, $8::text, $9::text, $10::text, $11::text, coalesce($12::timestamptz, now()))
on conflict (id) do update
set status = excluded.status,
    locator = excluded.locator,
    error_code = excluded.error_code,
    error_message = excluded.error_message;
`

const QSelectRunByID = `--sql 3c7680d8-78aa-4ebe-89ab-29f6d99dfbdc
select id, status, instruction, has_person, confidence, coalesce(description::text, ''), prompt, locator, error_code, error_message, client_country, created_at
from edit_runs
where id = $1::text;
`
